// internal/register/category_test.go
package register

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddress_OffsetTable(t *testing.T) {
	cases := []struct {
		cat    Category
		offset uint16
		fc     uint8
	}{
		{Coil, 1, 1},
		{DiscreteInput, 10001, 2},
		{Holding, 40001, 3},
		{Input, 30001, 4},
	}

	for _, tc := range cases {
		t.Run(tc.cat.String(), func(t *testing.T) {
			offset, fc, err := Address(tc.cat)
			require.NoError(t, err)
			assert.Equal(t, tc.offset, offset)
			assert.Equal(t, tc.fc, fc)
		})
	}
}

func TestAddress_InvalidCategory(t *testing.T) {
	for _, c := range []Category{0, 5, 255} {
		_, _, err := Address(c)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidCategory))
	}
}

func TestParse(t *testing.T) {
	c, err := Parse("Holding")
	require.NoError(t, err)
	assert.Equal(t, Holding, c)

	c, err = Parse(" discrete ")
	require.NoError(t, err)
	assert.Equal(t, DiscreteInput, c)

	_, err = Parse("registers")
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestParseList_EmptyMeansAllInFixedOrder(t *testing.T) {
	cats, err := ParseList(nil)
	require.NoError(t, err)
	assert.Equal(t, []Category{Coil, DiscreteInput, Holding, Input}, cats)

	// callers must not be able to mutate All through the result
	cats[0] = Input
	assert.Equal(t, Coil, All[0])
}

func TestParseList_KeepsOrder(t *testing.T) {
	cats, err := ParseList([]string{"input", "coil"})
	require.NoError(t, err)
	assert.Equal(t, []Category{Input, Coil}, cats)

	_, err = ParseList([]string{"input", "bogus"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestModbusRange(t *testing.T) {
	first, last, err := Holding.ModbusRange()
	require.NoError(t, err)
	assert.Equal(t, 40001, first)
	assert.Equal(t, 49999, last)

	first, last, err = Coil.ModbusRange()
	require.NoError(t, err)
	assert.Equal(t, 1, first)
	assert.Equal(t, 9999, last)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "DISCRETE", DiscreteInput.Upper())
	assert.Equal(t, []string{"coil", "discrete", "holding", "input"}, Names())
	assert.Equal(t, "category(9)", Category(9).String())
}
