package repository

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/contractdesk/internal/contract"
	"github.com/dshills/contractdesk/internal/storage"
)

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memStore is an in-memory storage.Store that counts saves.
type memStore struct {
	records []contract.Record
	saves   int
	loadErr error
	saveErr error
}

func (m *memStore) Load() ([]contract.Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]contract.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Save(records []contract.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.records = make([]contract.Record, len(records))
	copy(m.records, records)
	return nil
}

func rec(name string, kind contract.InsuranceType, created contract.Date) contract.Record {
	return contract.Record{
		FullName:       name,
		BirthDate:      contract.NewDate(1990, time.January, 1),
		PassportID:     "4500 000000",
		Phone:          "+70000000000",
		InsuranceType:  kind,
		DurationMonths: 12,
		Amount:         100000,
		CreationDate:   created,
	}
}

func names(records []contract.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.FullName
	}
	return out
}

func TestOpen_EmptyStorage(t *testing.T) {
	r, err := Open(storage.NewJSONFile(filepath.Join(t.TempDir(), "c.json")))
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestLoad_PatchesLegacyCreationDate(t *testing.T) {
	old := contract.NewDate(2020, time.February, 2)
	store := &memStore{records: []contract.Record{
		rec("legacy", contract.Auto, contract.Date{}),
		rec("dated", contract.Life, old),
	}}

	r := New(store, WithClock(fixedClock))
	records, err := r.Load()
	require.NoError(t, err)

	assert.Equal(t, contract.DateOf(fixedNow), records[0].CreationDate)
	assert.Equal(t, old, records[1].CreationDate)
	assert.Equal(t, 1, r.Patched())
	assert.Equal(t, 0, store.saves, "load must not rewrite storage")
	assert.True(t, store.records[0].CreationDate.IsZero())
}

func TestLoad_Error(t *testing.T) {
	_, err := Open(&memStore{loadErr: errors.New("disk gone")})
	assert.ErrorContains(t, err, "disk gone")
}

func TestAppend_PersistsEveryTime(t *testing.T) {
	store := &memStore{}
	r := New(store)
	today := contract.DateOf(fixedNow)

	require.NoError(t, r.Append(rec("a", contract.Auto, today)))
	require.NoError(t, r.Append(rec("b", contract.Auto, today)))

	assert.Equal(t, 2, store.saves)
	assert.Equal(t, []string{"a", "b"}, names(store.records))
}

func TestAppend_DuplicatesAllowed(t *testing.T) {
	r := New(&memStore{})
	x := rec("same", contract.Auto, contract.DateOf(fixedNow))
	require.NoError(t, r.Append(x))
	require.NoError(t, r.Append(x))
	assert.Equal(t, 2, r.Len())
}

func TestDelete_NoSelection(t *testing.T) {
	store := &memStore{}
	r := New(store)
	require.NoError(t, r.Append(rec("a", contract.Auto, contract.DateOf(fixedNow))))

	for _, idx := range []int{-1, 1, 42} {
		err := r.Delete(idx)
		assert.ErrorIs(t, err, ErrNoSelection, "index %d", idx)
	}
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, 1, store.saves)
}

func TestDelete_RemovesAndPersists(t *testing.T) {
	store := &memStore{}
	r := New(store)
	today := contract.DateOf(fixedNow)
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, r.Append(rec(n, contract.Auto, today)))
	}

	require.NoError(t, r.Delete(1))
	assert.Equal(t, []string{"a", "c"}, names(r.Records()))
	assert.Equal(t, []string{"a", "c"}, names(store.records))
}

func TestCreateThenDelete_LeavesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contracts_history.json")
	r, err := Open(storage.NewJSONFile(path))
	require.NoError(t, err)

	require.NoError(t, r.Append(contract.Record{
		FullName:       "Ivanov I.I.",
		PassportID:     "4500 123456",
		Phone:          "+7...",
		InsuranceType:  contract.Auto,
		DurationMonths: 12,
		Amount:         500000,
		CreationDate:   contract.DateOf(fixedNow),
	}))
	require.NoError(t, r.Delete(0))

	assert.Equal(t, 0, r.Len())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestSearch(t *testing.T) {
	r := New(&memStore{})
	today := contract.DateOf(fixedNow)
	require.NoError(t, r.Append(rec("Ivanov Ivan", contract.Auto, today)))
	require.NoError(t, r.Append(rec("Petrov Petr", contract.Medical, today)))
	require.NoError(t, r.Append(rec("Sidorova", contract.Travel, today)))

	assert.Equal(t, []string{"Ivanov Ivan"}, names(r.Search("IVAN")))
	assert.Equal(t, []string{"Petrov Petr"}, names(r.Search("medic")))
	assert.Equal(t, []string{"Ivanov Ivan", "Petrov Petr", "Sidorova"}, names(r.Search("")))
	assert.Empty(t, r.Search("zzz"))

	hits := r.SearchIndexed("trav")
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Index)
}

func TestSortBy(t *testing.T) {
	r := New(&memStore{})
	require.NoError(t, r.Append(rec("beta", contract.Travel, contract.NewDate(2024, time.March, 1))))
	require.NoError(t, r.Append(rec("Alpha", contract.Auto, contract.NewDate(2025, time.January, 1))))
	require.NoError(t, r.Append(rec("gamma", contract.Life, contract.NewDate(2023, time.June, 1))))

	require.NoError(t, r.SortBy(SortByName))
	assert.Equal(t, []string{"Alpha", "beta", "gamma"}, names(r.Records()))

	require.NoError(t, r.SortBy(SortByType))
	assert.Equal(t, []string{"Alpha", "gamma", "beta"}, names(r.Records()))

	require.NoError(t, r.SortBy(SortByDate))
	assert.Equal(t, []string{"gamma", "beta", "Alpha"}, names(r.Records()))

	assert.Error(t, r.SortBy("phone"))
}

func TestSortBy_DoesNotSave(t *testing.T) {
	store := &memStore{}
	r := New(store)
	require.NoError(t, r.Append(rec("b", contract.Auto, contract.DateOf(fixedNow))))
	require.NoError(t, r.Append(rec("a", contract.Auto, contract.DateOf(fixedNow))))

	require.NoError(t, r.SortBy(SortByName))
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, []string{"b", "a"}, names(store.records))
}

func TestSortHits_KeepsPositions(t *testing.T) {
	r := New(&memStore{})
	require.NoError(t, r.Append(rec("beta", contract.Travel, contract.DateOf(fixedNow))))
	require.NoError(t, r.Append(rec("Alpha", contract.Auto, contract.DateOf(fixedNow))))

	hits := r.SearchIndexed("")
	require.NoError(t, SortHits(hits, SortByName))
	assert.Equal(t, "Alpha", hits[0].Record.FullName)
	assert.Equal(t, 1, hits[0].Index)
	assert.Equal(t, []string{"beta", "Alpha"}, names(r.Records()), "sequence must be untouched")

	assert.Error(t, SortHits(hits, "phone"))
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey(" Date ")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, k)
	_, err = ParseSortKey("amount")
	assert.Error(t, err)
}

func TestSave_ErrorWrapped(t *testing.T) {
	r := New(&memStore{saveErr: errors.New("read-only")})
	err := r.Append(rec("a", contract.Auto, contract.DateOf(fixedNow)))
	assert.ErrorContains(t, err, "saving contracts")
}

// --- properties ---

var namePool = []string{"Ivanov", "ivanov", "Petrov", "Sidorova", "Орлов", "орлова", "Zed", ""}

func genRecord() *rapid.Generator[contract.Record] {
	return rapid.Custom(func(t *rapid.T) contract.Record {
		types := contract.InsuranceTypes()
		return contract.Record{
			FullName:       rapid.SampledFrom(namePool).Draw(t, "name"),
			BirthDate:      contract.NewDate(rapid.IntRange(1930, 2010).Draw(t, "by"), time.Month(rapid.IntRange(1, 12).Draw(t, "bm")), rapid.IntRange(1, 28).Draw(t, "bd")),
			PassportID:     rapid.StringN(1, 12, -1).Draw(t, "passport"),
			Phone:          rapid.StringN(1, 12, -1).Draw(t, "phone"),
			InsuranceType:  rapid.SampledFrom(types).Draw(t, "type"),
			DurationMonths: rapid.IntRange(contract.MinDurationMonths, contract.MaxDurationMonths).Draw(t, "months"),
			Amount:         rapid.IntRange(1, 1000).Draw(t, "amount") * contract.AmountStep,
			CreationDate:   contract.NewDate(rapid.IntRange(2020, 2026).Draw(t, "cy"), time.Month(rapid.IntRange(1, 12).Draw(t, "cm")), rapid.IntRange(1, 28).Draw(t, "cd")),
		}
	})
}

func TestProperty_StorageRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		path := filepath.Join(t.TempDir(), "c.json")
		r := New(storage.NewJSONFile(path))

		var model []contract.Record
		steps := rapid.IntRange(0, 20).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			if len(model) > 0 && rapid.Bool().Draw(rt, "delete") {
				idx := rapid.IntRange(0, len(model)-1).Draw(rt, "idx")
				if err := r.Delete(idx); err != nil {
					rt.Fatalf("Delete: %v", err)
				}
				model = append(model[:idx], model[idx+1:]...)
				continue
			}
			x := genRecord().Draw(rt, "record")
			if err := r.Append(x); err != nil {
				rt.Fatalf("Append: %v", err)
			}
			model = append(model, x)
		}

		reloaded, err := Open(storage.NewJSONFile(path))
		if err != nil {
			rt.Fatalf("Open: %v", err)
		}
		if model == nil {
			model = []contract.Record{}
		}
		assert.Equal(rt, model, reloaded.Records())
	})
}

func TestProperty_SortByNameIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New(&memStore{})
		for _, x := range rapid.SliceOf(genRecord()).Draw(rt, "records") {
			_ = r.Append(x)
		}
		_ = r.SortBy(SortByName)
		once := r.Records()
		_ = r.SortBy(SortByName)
		assert.Equal(rt, once, r.Records())
	})
}

func TestProperty_SortIsStable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New(&memStore{})
		records := rapid.SliceOf(genRecord()).Draw(rt, "records")
		for i := range records {
			records[i].Amount = (i + 1) * contract.AmountStep
			_ = r.Append(records[i])
		}
		_ = r.SortBy(SortByType)
		sorted := r.Records()
		for i := 1; i < len(sorted); i++ {
			a, b := sorted[i-1], sorted[i]
			if strings.EqualFold(string(a.InsuranceType), string(b.InsuranceType)) && a.Amount > b.Amount {
				rt.Fatalf("equal keys reordered: %v before %v", a, b)
			}
		}
	})
}

func TestProperty_SearchSubset(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		r := New(&memStore{})
		for _, x := range rapid.SliceOf(genRecord()).Draw(rt, "records") {
			_ = r.Append(x)
		}
		before := r.Records()
		text := rapid.SampledFrom([]string{"", "iv", "OV", "орл", "auto", "LIFE", "e", "q"}).Draw(rt, "text")

		hits := r.SearchIndexed(text)
		for _, h := range hits {
			assert.Equal(rt, before[h.Index], h.Record)
			lower := strings.ToLower(text)
			ok := strings.Contains(strings.ToLower(h.Record.FullName), lower) ||
				strings.Contains(strings.ToLower(string(h.Record.InsuranceType)), lower)
			assert.True(rt, ok, "hit %v does not match %q", h.Record, text)
		}
		if text == "" {
			assert.Equal(rt, before, r.Search(""))
		}
		assert.Equal(rt, before, r.Records(), "search mutated the sequence")
	})
}
