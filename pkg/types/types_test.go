package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecificationsScanFromBytesAndString(t *testing.T) {
	var specs Specifications
	require.NoError(t, specs.Scan([]byte(`[{"key":"Glaze","value":"Celadon"}]`)))
	require.Len(t, specs, 1)
	assert.Equal(t, "Glaze", specs[0].Key)

	var fromString Specifications
	require.NoError(t, fromString.Scan(`[]`))
	assert.Empty(t, fromString)

	var nilSpecs Specifications
	v, err := nilSpecs.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	assert.Error(t, specs.Scan(42))
}

func TestSpecificationsNormalize(t *testing.T) {
	specs := Specifications{{Key: "  Height ", Value: " 12cm "}, {Key: " ", Value: "dropped"}}
	got := specs.Normalize()
	require.Len(t, got, 1)
	assert.Equal(t, Specification{Key: "Height", Value: "12cm"}, got[0])
}

func TestShippingAddressValueRequiresPostalCode(t *testing.T) {
	_, err := ShippingAddress{Line1: "1 Kiln Rd", City: "Stoke"}.Value()
	assert.Error(t, err)

	v, err := ShippingAddress{}.Value()
	require.NoError(t, err)

	var back ShippingAddress
	require.NoError(t, back.Scan(v))
	assert.True(t, back.IsZero())
}
