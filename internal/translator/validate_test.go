package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchOf(ids ...string) Batch {
	batch := Batch{StartLine: 1}
	for _, id := range ids {
		batch.Items = append(batch.Items, Item{Index: id, Content: "src " + id})
	}
	return batch
}

func TestValidate_ValidArray(t *testing.T) {
	t.Parallel()

	res, err := Validate(`[{"index":"1","content":"Hola"},{"index":"2","content":"Mundo"}]`, batchOf("1", "2"))
	require.NoError(t, err)
	assert.Equal(t, []Item{{Index: "1", Content: "Hola"}, {Index: "2", Content: "Mundo"}}, res.Items)
	assert.Empty(t, res.Warnings)
}

func TestValidate_StripsCodeFences(t *testing.T) {
	t.Parallel()

	raw := "```json\n[{\"index\":\"1\",\"content\":\"Hola\"}]\n```"
	res, err := Validate(raw, batchOf("1"))
	require.NoError(t, err)
	assert.Equal(t, "Hola", res.Items[0].Content)
}

func TestValidate_RepairsNearValidJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "trailing comma", raw: `[{"index":"1","content":"Hola"},]`},
		{name: "single quotes", raw: `[{'index':'1','content':'Hola'}]`},
		{name: "unquoted keys", raw: `[{index:"1",content:"Hola"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate(tt.raw, batchOf("1"))
			require.NoError(t, err)
			require.Len(t, res.Items, 1)
			assert.Equal(t, Item{Index: "1", Content: "Hola"}, res.Items[0])
		})
	}
}

func TestValidate_DropsForeignAndIncompleteItems(t *testing.T) {
	t.Parallel()

	raw := `[{"index":"1","content":"Hola"},{"index":"99","content":"Extra"},{"index":"2"}]`
	res, err := Validate(raw, batchOf("1", "2"))
	require.NoError(t, err)
	assert.Equal(t, []Item{{Index: "1", Content: "Hola"}}, res.Items)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "Index 99 not found")
	assert.Contains(t, res.Warnings[1], "Missing fields")
}

func TestValidate_RemovesBlankLines(t *testing.T) {
	t.Parallel()

	raw := `[{"index":"1","content":"uno\n\ndos"},{"index":"2","content":"tres\r\n \r\ncuatro\n"}]`
	res, err := Validate(raw, batchOf("1", "2"))
	require.NoError(t, err)
	assert.Equal(t, []Item{{Index: "1", Content: "uno\ndos"}, {Index: "2", Content: "tres\ncuatro"}}, res.Items)
}

func TestValidate_EmptyCueMayStayEmpty(t *testing.T) {
	t.Parallel()

	batch := Batch{StartLine: 1, Items: []Item{{Index: "1", Content: "Hello"}, {Index: "2", Content: ""}}}
	res, err := Validate(`[{"index":"1","content":""},{"index":"2","content":""}]`, batch)
	require.NoError(t, err)
	assert.Equal(t, []Item{{Index: "2", Content: ""}}, res.Items)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Missing fields")
}

func TestBatchBlank(t *testing.T) {
	t.Parallel()

	assert.True(t, Batch{Items: []Item{{Index: "1", Content: " "}, {Index: "2"}}}.Blank())
	assert.False(t, batchOf("1").Blank())
}

func TestValidate_NumericIndexNormalized(t *testing.T) {
	t.Parallel()

	res, err := Validate(`[{"index":3,"content":"Tres"}]`, batchOf("3"))
	require.NoError(t, err)
	assert.Equal(t, "3", res.Items[0].Index)
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	_, err := Validate(`{"index":"1","content":"Hola"}`, batchOf("1"))
	require.ErrorIs(t, err, ErrNotArray)

	_, err = Validate(`[{"index":"7","content":"Hola"}]`, batchOf("1"))
	require.ErrorIs(t, err, ErrNoValidItems)

	_, err = Validate("  ", batchOf("1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestValidate_WrapsRightToLeft(t *testing.T) {
	t.Parallel()

	res, err := Validate(`[{"index":"1","content":"שלום"},{"index":"2","content":"مرحبا"},{"index":"3","content":"Hello"}]`, batchOf("1", "2", "3"))
	require.NoError(t, err)
	require.Len(t, res.Items, 3)
	assert.Equal(t, "\u202Bשלום\u202C", res.Items[0].Content)
	assert.Equal(t, "\u202Bمرحبا\u202C", res.Items[1].Content)
	assert.Equal(t, "Hello", res.Items[2].Content)
}

func TestWrapRTLIsIdempotent(t *testing.T) {
	t.Parallel()

	once := WrapRTL("שלום")
	assert.Equal(t, once, WrapRTL(once))
}
