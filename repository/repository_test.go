package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leomrlima/nosql/codec"
	"github.com/leomrlima/nosql/mapping"
	"github.com/leomrlima/nosql/provider"
)

// memorySession is an in-memory Session for exercising the repository without
// a backend
type memorySession struct {
	docs map[string]codec.Document
}

func newMemorySession() *memorySession {
	return &memorySession{docs: make(map[string]codec.Document)}
}

func (s *memorySession) Insert(_ context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	key := fmt.Sprint(id)
	if _, exists := s.docs[key]; exists {
		return fmt.Errorf("%w: %s %v", provider.ErrDuplicateKey, meta.Name, id)
	}
	s.docs[key] = doc
	return nil
}

func (s *memorySession) Update(_ context.Context, meta *mapping.EntityMetadata, doc codec.Document) error {
	id, err := provider.DocumentID(meta, doc)
	if err != nil {
		return err
	}
	key := fmt.Sprint(id)
	if _, exists := s.docs[key]; !exists {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	s.docs[key] = doc
	return nil
}

func (s *memorySession) Get(_ context.Context, meta *mapping.EntityMetadata, id any) (codec.Document, error) {
	doc, exists := s.docs[fmt.Sprint(id)]
	if !exists {
		return nil, fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	return doc, nil
}

func (s *memorySession) Delete(_ context.Context, meta *mapping.EntityMetadata, id any) error {
	key := fmt.Sprint(id)
	if _, exists := s.docs[key]; !exists {
		return fmt.Errorf("%w: %s %v", provider.ErrNotFound, meta.Name, id)
	}
	delete(s.docs, key)
	return nil
}

func (s *memorySession) Ping(context.Context) error { return nil }
func (s *memorySession) Close() error               { return nil }

type task struct {
	ID    string `column:",id"`
	Title string `column:"title"`
	Done  bool   `column:"done"`
}

type event struct {
	ID   uuid.UUID `column:",id"`
	Name string    `column:"name"`
}

type counter struct {
	ID int64 `column:",id"`
	N  int   `column:"n"`
}

func newTaskRepo(t *testing.T) (*Repository[task], *memorySession) {
	t.Helper()
	session := newMemorySession()
	repo, err := New[task](mapping.NewResolver(nil), session)
	require.NoError(t, err)
	return repo, session
}

func TestRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("insert then find round-trips the entity", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{ID: "t1", Title: "write tests", Done: false}

		require.NoError(t, repo.Insert(ctx, &in))

		got, err := repo.FindByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, in, *got)
	})

	t.Run("insert generates a string identifier when absent", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{Title: "autogenerate"}

		require.NoError(t, repo.Insert(ctx, &in))
		require.NotEmpty(t, in.ID)

		_, err := uuid.Parse(in.ID)
		assert.NoError(t, err)
	})

	t.Run("insert generates a UUID identifier when absent", func(t *testing.T) {
		session := newMemorySession()
		repo, err := New[event](mapping.NewResolver(nil), session)
		require.NoError(t, err)

		in := event{Name: "launch"}
		require.NoError(t, repo.Insert(ctx, &in))
		assert.NotEqual(t, uuid.UUID{}, in.ID)
	})

	t.Run("insert refuses a zero identifier it cannot generate", func(t *testing.T) {
		session := newMemorySession()
		repo, err := New[counter](mapping.NewResolver(nil), session)
		require.NoError(t, err)

		err = repo.Insert(ctx, &counter{N: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, provider.ErrMissingID)
	})

	t.Run("insert keeps a caller-assigned identifier", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{ID: "chosen", Title: "x"}

		require.NoError(t, repo.Insert(ctx, &in))
		assert.Equal(t, "chosen", in.ID)
	})

	t.Run("update replaces a stored entity", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{ID: "t1", Title: "before"}
		require.NoError(t, repo.Insert(ctx, &in))

		in.Title = "after"
		in.Done = true
		require.NoError(t, repo.Update(ctx, &in))

		got, err := repo.FindByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "after", got.Title)
		assert.True(t, got.Done)
	})

	t.Run("update fails for a missing entity", func(t *testing.T) {
		repo, _ := newTaskRepo(t)

		err := repo.Update(ctx, &task{ID: "ghost"})
		require.Error(t, err)
		assert.True(t, provider.IsNotFound(err))
	})

	t.Run("save inserts a new entity and updates an existing one", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{ID: "t1", Title: "first"}

		require.NoError(t, repo.Save(ctx, &in))

		in.Title = "second"
		require.NoError(t, repo.Save(ctx, &in))

		got, err := repo.FindByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "second", got.Title)
	})

	t.Run("save without an identifier inserts with a generated one", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		in := task{Title: "fresh"}

		require.NoError(t, repo.Save(ctx, &in))
		assert.NotEmpty(t, in.ID)
	})

	t.Run("delete removes the entity", func(t *testing.T) {
		repo, _ := newTaskRepo(t)
		require.NoError(t, repo.Insert(ctx, &task{ID: "t1", Title: "x"}))

		require.NoError(t, repo.DeleteByID(ctx, "t1"))

		_, err := repo.FindByID(ctx, "t1")
		assert.True(t, provider.IsNotFound(err))
	})

	t.Run("find fails for a missing entity", func(t *testing.T) {
		repo, _ := newTaskRepo(t)

		_, err := repo.FindByID(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, provider.IsNotFound(err))
	})

	t.Run("metadata exposes the resolved schema", func(t *testing.T) {
		repo, _ := newTaskRepo(t)

		meta := repo.Metadata()
		assert.Equal(t, "task", meta.Name)
		assert.Equal(t, []string{"_id", "title", "done"}, meta.Columns())
	})

	t.Run("new rejects unmappable entity types", func(t *testing.T) {
		type bad struct {
			Lookup map[string]string `column:"lookup"`
		}
		_, err := New[bad](mapping.NewResolver(nil), newMemorySession())
		require.Error(t, err)
		assert.True(t, mapping.IsConfiguration(err))
	})
}
