package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrity_ConsistentState(t *testing.T) {
	assert.NoError(t, CheckIntegrity(twoModuleState()))
}

func TestCheckIntegrity_DanglingOrderEntry(t *testing.T) {
	s := twoModuleState().Clone()
	s.ModuleOrder = append(s.ModuleOrder, "ghost")

	err := CheckIntegrity(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown module ghost")
}

func TestCheckIntegrity_OrphanedEntity(t *testing.T) {
	s := twoModuleState().Clone()
	s.ModuleOrder = s.ModuleOrder[:1] // m2 no longer ordered

	err := CheckIntegrity(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "m2 missing from module order")
}

func TestCheckIntegrity_OrderFieldMismatch(t *testing.T) {
	s := twoModuleState().Clone()
	m := *s.Modules["m2"]
	m.Order = 5
	s.Modules["m2"] = &m

	err := CheckIntegrity(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order 5")
}

func TestCheckIntegrity_WrongParentReference(t *testing.T) {
	s := twoModuleState().Clone()
	l := *s.Lessons["l1"]
	l.ModuleID = "m2"
	s.Lessons["l1"] = &l

	err := CheckIntegrity(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ordered under m1")
}

func TestCheckIntegrity_DuplicateOrderEntry(t *testing.T) {
	s := twoModuleState().Clone()
	s.ResourceOrder["l1"] = []string{"r1", "r1"}

	err := CheckIntegrity(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resource r1")
}

func TestCheckIntegrity_ReportsAllProblems(t *testing.T) {
	s := twoModuleState().Clone()
	s.ModuleOrder = append(s.ModuleOrder, "ghost")
	s.ResourceOrder["l1"] = []string{}

	err := CheckIntegrity(s)
	require.Error(t, err)

	var ie *IntegrityError
	require.ErrorAs(t, err, &ie)
	assert.GreaterOrEqual(t, len(ie.Problems), 2)
}
