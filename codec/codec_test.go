package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leomrlima/nosql/mapping"
)

type address struct {
	City   string `column:"city"`
	Street string `column:"street"`
}

type person struct {
	ID      int64    `column:",id"`
	Name    string   `column:"name"`
	Address address  `column:"address"`
	Phones  []string `column:"phones"`
}

func resolve(t *testing.T, entity any) *mapping.EntityMetadata {
	t.Helper()
	meta, err := mapping.NewResolver(nil).Resolve(entity)
	require.NoError(t, err)
	return meta
}

func TestMarshal(t *testing.T) {
	t.Run("nests embedded values as documents", func(t *testing.T) {
		meta := resolve(t, &person{})
		p := person{
			ID:   10,
			Name: "Ada Lovelace",
			Address: address{
				City:   "São Paulo",
				Street: "Av nove de julho",
			},
		}

		doc, err := Marshal(meta, &p)
		require.NoError(t, err)

		assert.Equal(t, int64(10), doc["_id"])
		assert.Equal(t, "Ada Lovelace", doc["name"])
		assert.Equal(t, Document{
			"city":   "São Paulo",
			"street": "Av nove de julho",
		}, doc["address"])
	})

	t.Run("preserves collection order", func(t *testing.T) {
		meta := resolve(t, &person{})
		p := person{ID: 1, Phones: []string{"234", "432"}}

		doc, err := Marshal(meta, &p)
		require.NoError(t, err)

		assert.Equal(t, []any{"234", "432"}, doc["phones"])
	})

	t.Run("nil slices and nil pointers marshal as nil", func(t *testing.T) {
		type profile struct {
			ID    string   `column:",id"`
			Home  *address `column:"home"`
			Tags  []string `column:"tags"`
			Score *int     `column:"score"`
		}
		meta := resolve(t, &profile{})

		doc, err := Marshal(meta, &profile{ID: "p1"})
		require.NoError(t, err)

		assert.Nil(t, doc["home"])
		assert.Nil(t, doc["tags"])
		assert.Nil(t, doc["score"])
	})

	t.Run("accepts values and pointers alike", func(t *testing.T) {
		meta := resolve(t, &person{})

		byValue, err := Marshal(meta, person{ID: 7})
		require.NoError(t, err)
		byPointer, err := Marshal(meta, &person{ID: 7})
		require.NoError(t, err)

		assert.Equal(t, byValue, byPointer)
	})

	t.Run("rejects a mismatched entity type", func(t *testing.T) {
		meta := resolve(t, &person{})

		_, err := Marshal(meta, &address{})
		require.Error(t, err)
	})
}

func TestUnmarshal(t *testing.T) {
	t.Run("round-trips an entity", func(t *testing.T) {
		meta := resolve(t, &person{})
		original := person{
			ID:      10,
			Name:    "Ada Lovelace",
			Address: address{City: "São Paulo", Street: "Av nove de julho"},
			Phones:  []string{"234", "432"},
		}

		doc, err := Marshal(meta, &original)
		require.NoError(t, err)

		var got person
		require.NoError(t, Unmarshal(meta, doc, &got))
		assert.Equal(t, original, got)
	})

	t.Run("accepts plain maps for nested documents", func(t *testing.T) {
		meta := resolve(t, &person{})
		doc := Document{
			"_id":  int64(3),
			"name": "Grace Hopper",
			"address": map[string]any{
				"city": "Arlington",
			},
		}

		var got person
		require.NoError(t, Unmarshal(meta, doc, &got))
		assert.Equal(t, "Arlington", got.Address.City)
	})

	t.Run("converts compatible numeric widths", func(t *testing.T) {
		meta := resolve(t, &person{})
		doc := Document{"_id": int32(42)}

		var got person
		require.NoError(t, Unmarshal(meta, doc, &got))
		assert.Equal(t, int64(42), got.ID)
	})

	t.Run("leaves absent columns untouched", func(t *testing.T) {
		meta := resolve(t, &person{})
		got := person{Name: "existing"}

		require.NoError(t, Unmarshal(meta, Document{"_id": int64(1)}, &got))
		assert.Equal(t, "existing", got.Name)
	})

	t.Run("allocates through nil pointers", func(t *testing.T) {
		type profile struct {
			ID   string   `column:",id"`
			Home *address `column:"home"`
		}
		meta := resolve(t, &profile{})
		doc := Document{"_id": "p1", "home": Document{"city": "Lyon"}}

		var got profile
		require.NoError(t, Unmarshal(meta, doc, &got))
		require.NotNil(t, got.Home)
		assert.Equal(t, "Lyon", got.Home.City)
	})

	t.Run("reports incompatible scalar values as conversion errors", func(t *testing.T) {
		meta := resolve(t, &person{})
		doc := Document{"name": 12}

		var got person
		err := Unmarshal(meta, doc, &got)
		require.Error(t, err)
		assert.True(t, mapping.IsConversion(err))
	})

	t.Run("rejects a non-sequence for a collection column", func(t *testing.T) {
		meta := resolve(t, &person{})
		doc := Document{"phones": "234"}

		var got person
		err := Unmarshal(meta, doc, &got)
		require.Error(t, err)
		assert.True(t, mapping.IsConversion(err))
	})

	t.Run("requires a non-nil pointer target", func(t *testing.T) {
		meta := resolve(t, &person{})

		assert.Error(t, Unmarshal(meta, Document{}, person{}))
		assert.Error(t, Unmarshal(meta, Document{}, (*person)(nil)))
	})
}

type upperConverter struct{}

func (upperConverter) ToNative(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return "native:" + s, nil
}

func (upperConverter) FromNative(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("expected string, got %T", v)
	}
	return s[len("native:"):], nil
}

func TestConvertedFields(t *testing.T) {
	type note struct {
		ID   string `column:",id"`
		Body string `column:"body" convert:"wire"`
	}

	newMeta := func(t *testing.T) *mapping.EntityMetadata {
		t.Helper()
		reg := mapping.NewConverterRegistry()
		require.NoError(t, reg.Register("wire", upperConverter{}))
		meta, err := mapping.NewResolver(reg).Resolve(&note{})
		require.NoError(t, err)
		return meta
	}

	t.Run("routes values through the converter both ways", func(t *testing.T) {
		meta := newMeta(t)

		doc, err := Marshal(meta, &note{ID: "n1", Body: "hello"})
		require.NoError(t, err)
		assert.Equal(t, "native:hello", doc["body"])

		var got note
		require.NoError(t, Unmarshal(meta, doc, &got))
		assert.Equal(t, "hello", got.Body)
	})

	t.Run("wraps converter failures as conversion errors", func(t *testing.T) {
		meta := newMeta(t)
		doc := Document{"body": 99}

		var got note
		err := Unmarshal(meta, doc, &got)
		require.Error(t, err)
		assert.True(t, mapping.IsConversion(err))
	})
}

func TestTextScalars(t *testing.T) {
	type event struct {
		ID      uuid.UUID `column:",id"`
		When    time.Time `column:"when"`
		Payload []byte    `column:"payload"`
	}

	t.Run("decodes text-serialized scalars on unmarshal", func(t *testing.T) {
		meta := resolve(t, &event{})
		id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
		when := time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC)

		// JSON-backed providers hand these back as strings.
		doc := Document{
			"_id":     id.String(),
			"when":    when.Format(time.RFC3339Nano),
			"payload": base64.StdEncoding.EncodeToString([]byte("raw")),
		}

		var got event
		require.NoError(t, Unmarshal(meta, doc, &got))
		assert.Equal(t, id, got.ID)
		assert.True(t, when.Equal(got.When))
		assert.Equal(t, []byte("raw"), got.Payload)
	})

	t.Run("survives a JSON round trip", func(t *testing.T) {
		meta := resolve(t, &event{})
		in := event{
			ID:      uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962"),
			When:    time.Date(2026, 8, 29, 12, 30, 0, 0, time.UTC),
			Payload: []byte("raw"),
		}

		doc, err := Marshal(meta, &in)
		require.NoError(t, err)

		payload, err := json.Marshal(doc)
		require.NoError(t, err)
		var stored Document
		require.NoError(t, json.Unmarshal(payload, &stored))

		var got event
		require.NoError(t, Unmarshal(meta, stored, &got))
		assert.Equal(t, in.ID, got.ID)
		assert.True(t, in.When.Equal(got.When))
		assert.Equal(t, in.Payload, got.Payload)
	})

	t.Run("reports undecodable text", func(t *testing.T) {
		meta := resolve(t, &event{})

		var got event
		err := Unmarshal(meta, Document{"when": "not-a-timestamp"}, &got)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot assign")
	})
}

func TestID(t *testing.T) {
	t.Run("reads and writes the identifier", func(t *testing.T) {
		meta := resolve(t, &person{})
		p := person{ID: 5}

		id, ok, err := ID(meta, &p)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(5), id)

		require.NoError(t, SetID(meta, &p, int64(9)))
		assert.Equal(t, int64(9), p.ID)
	})

	t.Run("reports entities without an identifier", func(t *testing.T) {
		meta := resolve(t, &address{})

		_, ok, err := ID(meta, &address{})
		require.NoError(t, err)
		assert.False(t, ok)

		assert.Error(t, SetID(meta, &address{}, "x"))
	})

	t.Run("SetID requires a pointer", func(t *testing.T) {
		meta := resolve(t, &person{})
		assert.Error(t, SetID(meta, person{}, int64(1)))
	})
}
