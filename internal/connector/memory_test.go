package connector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbeoliero/datafactory/domain/entity"
)

func TestMemorySource_RowsVariants(t *testing.T) {
	ctx := context.Background()

	// []Row 直接写在配置里
	source, err := NewMemorySource(entity.ConnectorConfig{"rows": []Row{{"id": 1}}})
	require.NoError(t, err)
	rows, err := source.Extract(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// json 反序列化得到的 []any
	source, err = NewMemorySource(entity.ConnectorConfig{
		"rows": []any{map[string]any{"id": float64(1)}, map[string]any{"id": float64(2)}},
	})
	require.NoError(t, err)
	rows, err = source.Extract(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// rows 缺失
	_, err = NewMemorySource(entity.ConnectorConfig{})
	assert.ErrorIs(t, err, ErrMissingConfig)
	assert.Contains(t, err.Error(), "rows")

	// rows 不是行数组
	_, err = NewMemorySource(entity.ConnectorConfig{"rows": "nope"})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestMemorySink_OverwriteAndPreview(t *testing.T) {
	store := NewMemoryStore()
	sink, err := MemorySinkFactory(store)(entity.ConnectorConfig{})
	require.NoError(t, err)

	ctx := context.Background()

	n, err := sink.Load(ctx, []Row{{"id": 1}, {"id": 2}}, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// 覆盖写
	n, err = sink.Load(ctx, []Row{{"id": 3}}, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, store.Get("t1"), 1)

	_, err = sink.Load(ctx, []Row{{"id": 1}}, "t2")
	require.NoError(t, err)

	objects, err := sink.ListObjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, objects)

	rows, err := sink.Preview(ctx, "t1", 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// 不存在的对象预览为空
	rows, err = sink.Preview(ctx, "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
