package mutable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pipelined.dev/audiograph/mutable"
)

// mutableMock used to set up test cases for mutators
type mutableMock struct {
	mutable.Context
	value      int
	operations int
	expected   int
}

// AddDelta returns mutation that adds delta to the value.
func (m *mutableMock) AddDelta(delta int) mutable.Mutation {
	return m.Context.Mutate(func() {
		m.value += delta
	})
}

func TestPutMutations(t *testing.T) {
	tests := []struct {
		mocks []*mutableMock
	}{
		{
			mocks: []*mutableMock{
				{Context: mutable.Mutable(), operations: 1, expected: 10},
			},
		},
		{
			mocks: []*mutableMock{
				{Context: mutable.Mutable(), operations: 3, expected: 30},
				{Context: mutable.Mutable(), operations: 4, expected: 40},
			},
		},
	}

	for _, c := range tests {
		var mutations mutable.Mutations
		delta := 10
		for _, m := range c.mocks {
			for j := 0; j < m.operations; j++ {
				mutations = mutations.Put(m.AddDelta(delta))
			}
		}
		for _, m := range c.mocks {
			mutations.ApplyTo(m.Context)
			assert.Equal(t, m.expected, m.value)
		}
		assert.Empty(t, mutations)
	}
}

func TestAppendAndApplyAll(t *testing.T) {
	m1 := &mutableMock{Context: mutable.Mutable(), expected: 20}
	m2 := &mutableMock{Context: mutable.Mutable(), expected: 10}

	var mutations mutable.Mutations
	mutations = mutations.Append(mutable.Mutations{}.Put(m1.AddDelta(10)))
	mutations = mutations.Append(mutable.Mutations{}.Put(m1.AddDelta(10)).Put(m2.AddDelta(10)))
	mutations.ApplyAll()

	assert.Equal(t, m1.expected, m1.value)
	assert.Equal(t, m2.expected, m2.value)
	assert.Empty(t, mutations)
}

func TestDetachMutations(t *testing.T) {
	m1 := &mutableMock{Context: mutable.Mutable()}
	m2 := &mutableMock{Context: mutable.Mutable()}

	var mutations mutable.Mutations
	mutations = mutations.Put(m1.AddDelta(10)).Put(m2.AddDelta(5))

	d := mutations.Detach(m1.Context)
	mutations.ApplyTo(m1.Context)
	assert.Equal(t, 0, m1.value)

	d.ApplyTo(m1.Context)
	assert.Equal(t, 10, m1.value)
	assert.Nil(t, mutations.Detach(m1.Context))
	assert.Equal(t, 0, m2.value)
}

func TestMutability(t *testing.T) {
	mut := mutable.Immutable()
	assert.False(t, mut.IsMutable())
	mut = mutable.Mutable()
	assert.True(t, mut.IsMutable())
	assert.NotEqual(t, mut, mutable.Mutable())
	assert.Panics(t, func() {
		mutable.Immutable().Mutate(func() {})
	})

	// immutable mutations are ignored
	var mutations mutable.Mutations
	assert.Nil(t, mutations.Put(mutable.Mutation{}))

	mock := &mutableMock{Context: mutable.Mutable()}
	mock.AddDelta(10).Apply()
	assert.Equal(t, 10, mock.value)
}
