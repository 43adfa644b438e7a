package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Marshal(t *testing.T) {
	t.Run("Marshal empty metadata", func(t *testing.T) {
		m := Metadata{}

		bytes, err := m.Marshal()

		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), bytes)
	})

	t.Run("Marshal metadata with simple values", func(t *testing.T) {
		m := Metadata{
			"key1": "value1",
			"key2": 42,
			"key3": true,
		}

		bytes, err := m.Marshal()

		require.NoError(t, err)

		// Unmarshal to verify structure
		var result map[string]interface{}
		err = json.Unmarshal(bytes, &result)
		require.NoError(t, err)
		assert.Equal(t, "value1", result["key1"])
		assert.Equal(t, float64(42), result["key2"]) // JSON numbers become float64
		assert.Equal(t, true, result["key3"])
	})
}

func TestMetadata_Unmarshal(t *testing.T) {
	t.Run("Unmarshal JSON bytes", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal([]byte(`{"document_type": "design", "weight": 2}`))

		require.NoError(t, err)
		assert.Equal(t, "design", m["document_type"])
		assert.Equal(t, float64(2), m["weight"])
	})

	t.Run("Unmarshal nil value yields empty metadata", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal(nil)

		require.NoError(t, err)
		assert.NotNil(t, m)
		assert.Empty(t, m)
	})

	t.Run("Unmarshal unexpected type fails", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal(42)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion to []byte failed")
	})
}

func TestMetadata_ValueScan(t *testing.T) {
	t.Run("Value and Scan round trip", func(t *testing.T) {
		original := Metadata{"title": "Doc", "tags": []interface{}{"a", "b"}}

		value, err := original.Value()
		require.NoError(t, err)

		var scanned Metadata
		err = scanned.Scan(value)
		require.NoError(t, err)
		assert.Equal(t, "Doc", scanned["title"])
	})
}
