package mapping

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainBook struct {
	ISBN   string
	Title  string
	Author string
	Draft  bool
}

type plainAudiobook struct {
	plainBook
	Narrator string
}

func TestBuilder(t *testing.T) {
	t.Run("builds a descriptor without struct tags", func(t *testing.T) {
		d, err := Describe(plainBook{}).
			Named("Book").
			IDNamed("ISBN", "isbn").
			FieldNamed("Title", "title").
			Field("Author").
			Build()
		require.NoError(t, err)

		assert.Equal(t, "Book", d.Name())
		require.Len(t, d.Fields(), 3)

		r := NewResolver(nil)
		meta, err := r.ResolveDescriptor(d)
		require.NoError(t, err)

		assert.Equal(t, []string{"isbn", "title", "Author"}, meta.Columns())
		id, ok := meta.ID()
		require.True(t, ok)
		assert.Equal(t, "isbn", id.Column)
	})

	t.Run("defaults the identifier column when unnamed", func(t *testing.T) {
		d, err := Describe(plainBook{}).
			ID("ISBN").
			Field("Title").
			Build()
		require.NoError(t, err)

		r := NewResolver(nil)
		meta, err := r.ResolveDescriptor(d)
		require.NoError(t, err)

		id, ok := meta.ID()
		require.True(t, ok)
		assert.Equal(t, IDColumn, id.Column)
	})

	t.Run("Extends contributes parent fields first", func(t *testing.T) {
		parent, err := Describe(plainBook{}).
			IDNamed("ISBN", "isbn").
			FieldNamed("Title", "title").
			Build()
		require.NoError(t, err)

		d, err := Describe(plainAudiobook{}).
			FieldNamed("Narrator", "narrator").
			Extends(parent).
			Build()
		require.NoError(t, err)

		r := NewResolver(nil)
		meta, err := r.ResolveDescriptor(d)
		require.NoError(t, err)

		assert.Equal(t, []string{"isbn", "title", "narrator"}, meta.Columns())

		isbn, ok := meta.Field("isbn")
		require.True(t, ok)
		assert.Equal(t, []int{0, 0}, isbn.Index)
	})

	t.Run("Extends requires the parent type to be embedded", func(t *testing.T) {
		parent, err := Describe(address{}).Field("City").Build()
		require.NoError(t, err)

		_, err = Describe(plainBook{}).Field("Title").Extends(parent).Build()
		require.Error(t, err)
		assert.True(t, IsConfiguration(err))
	})

	t.Run("reports unknown fields", func(t *testing.T) {
		_, err := Describe(plainBook{}).Field("Missing").Build()
		require.Error(t, err)
		assert.True(t, IsConfiguration(err))
		assert.Contains(t, err.Error(), "no exported field Missing")
	})

	t.Run("retains the first error only", func(t *testing.T) {
		_, err := Describe(plainBook{}).
			Field("Missing").
			Named("").
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Missing")
	})

	t.Run("first resolved descriptor wins for a type", func(t *testing.T) {
		first, err := Describe(plainBook{}).Named("Book").ID("ISBN").Build()
		require.NoError(t, err)
		second, err := Describe(plainBook{}).Named("Tome").ID("Title").Build()
		require.NoError(t, err)

		r := NewResolver(nil)
		meta1, err := r.ResolveDescriptor(first)
		require.NoError(t, err)
		meta2, err := r.ResolveDescriptor(second)
		require.NoError(t, err)

		assert.Same(t, meta1, meta2)
		assert.Equal(t, "Book", meta2.Name)
	})
}

func TestDescribeStructTagParsing(t *testing.T) {
	t.Run("rejects unknown column options", func(t *testing.T) {
		type bad struct {
			Name string `column:"name,primary"`
		}
		_, err := DescribeStruct(reflect.TypeOf(bad{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown column option "primary"`)
	})

	t.Run("rejects an empty convert tag", func(t *testing.T) {
		type bad struct {
			Name string `column:"name" convert:""`
		}
		_, err := DescribeStruct(reflect.TypeOf(bad{}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "convert tag requires a converter name")
	})

	t.Run("embedded struct with a column tag stays a regular field", func(t *testing.T) {
		type Tagged struct {
			Animal `column:"animal"`
		}
		d, err := DescribeStruct(reflect.TypeOf(Tagged{}))
		require.NoError(t, err)
		require.Len(t, d.Fields(), 1)
		assert.Equal(t, "animal", d.Fields()[0].Column)
		assert.Equal(t, "Animal", d.Fields()[0].FieldName)
	})
}
