package population

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/feederwatch/core/model"
)

func TestGenerateDefaults(t *testing.T) {
	cfg := GeneratorConfig{Customers: 200}
	cfg.SetDefaults()
	pop, err := Generate(cfg, Engineers(DefaultEngineerSpecs), nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, pop.Customers(), 200)
	require.Len(t, pop.Engineers(), 5)
	for i, c := range pop.Customers() {
		assert.Equal(t, i+1, c.ID)
		assert.GreaterOrEqual(t, c.LastOutput, 50)
		assert.LessOrEqual(t, c.LastOutput, 500)
		assert.GreaterOrEqual(t, c.LastBill, 500)
		assert.LessOrEqual(t, c.LastBill, 10000)
		assert.True(t, c.FeederID >= 0 && c.FeederID < len(model.DefaultFeeders))
		assert.InDelta(t, 23.8103, c.Location.Lat, 0.05)
		assert.InDelta(t, 91.2514, c.Location.Lon, 0.05)
	}
	assert.Equal(t, "Customer_0", pop.Customers()[0].Name)
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := GeneratorConfig{Customers: 10}
	cfg.SetDefaults()
	a, err := Generate(cfg, nil, nil, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := Generate(cfg, nil, nil, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	for i := range a.Customers() {
		assert.Equal(t, *a.Customers()[i], *b.Customers()[i])
	}
}

func TestGenerateInvalid(t *testing.T) {
	cfg := GeneratorConfig{Customers: 1, OutputMin: 10, OutputMax: 5, BillMin: 1, BillMax: 2, Spread: 1}
	if _, err := Generate(cfg, nil, nil, rand.New(rand.NewSource(1))); err == nil {
		t.Fatalf("expected error for inverted output range")
	}
}

func TestResetWorkloads(t *testing.T) {
	pop, err := New(nil, Engineers(DefaultEngineerSpecs), nil)
	require.NoError(t, err)
	for _, e := range pop.Engineers() {
		e.Assign(1)
		e.Assign(2)
	}
	pop.ResetWorkloads()
	for _, e := range pop.Engineers() {
		if e.Workload != 0 || len(e.Assigned) != 0 {
			t.Fatalf("engineer %s not reset: %d %v", e.Name, e.Workload, e.Assigned)
		}
	}
}

func TestLookups(t *testing.T) {
	customers := []*model.Customer{{ID: 7, FeederID: 2}}
	pop, err := New(customers, Engineers(DefaultEngineerSpecs), nil)
	require.NoError(t, err)

	c, ok := pop.Customer(7)
	require.True(t, ok)
	assert.Same(t, customers[0], c)
	_, ok = pop.Customer(8)
	assert.False(t, ok)

	e, ok := pop.EngineerByName("Eng. Suman")
	require.True(t, ok)
	assert.Equal(t, model.SpecialtyMeter, e.Specialty)
	_, ok = pop.EngineerByName("Suman")
	assert.False(t, ok)

	f, ok := pop.Feeder(2)
	require.True(t, ok)
	assert.Equal(t, "Zone-B / Feeder-3", f.Name)
	_, ok = pop.Feeder(5)
	assert.False(t, ok)
}

func TestNewRejectsBadRegistries(t *testing.T) {
	if _, err := New([]*model.Customer{{ID: 1, FeederID: 9}}, nil, nil); err == nil {
		t.Fatalf("expected unknown feeder error")
	}
	if _, err := New([]*model.Customer{{ID: 1}, {ID: 1}}, nil, nil); err == nil {
		t.Fatalf("expected duplicate customer error")
	}
	dup := Engineers([]EngineerSpec{{Name: "a"}, {Name: "a"}})
	if _, err := New(nil, dup, nil); err == nil {
		t.Fatalf("expected duplicate engineer error")
	}
	if _, err := New(nil, nil, []model.Feeder{{ID: 1, Name: "x"}}); err == nil {
		t.Fatalf("expected feeder index error")
	}
}
