package slidespec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mss-report-engine/internal/domain/entity"
	"mss-report-engine/pkg/errors"
)

func sampleSpec() *entity.SlideSpec {
	return &entity.SlideSpec{
		TemplateID: "mgmt_v1",
		Slides: []entity.SlideContent{
			{
				SlideNo:  1,
				SlideKey: "cover",
				Placeholders: map[string]any{
					"TITLE": "安全月报",
					"PIE":   map[string]any{"categories": []any{"高危"}, "values": []any{float64(52)}},
				},
			},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "slidespecs"))

	path, err := store.Save(context.Background(), "acme_2026_07", sampleSpec())
	require.NoError(t, err)
	assert.Equal(t, "acme_2026_07_mgmt_v1.json", filepath.Base(path))

	loaded, err := store.Load(context.Background(), "acme_2026_07", "mgmt_v1")
	require.NoError(t, err)
	assert.Equal(t, "mgmt_v1", loaded.TemplateID)

	slide, ok := loaded.SlideByKey("cover")
	require.True(t, ok)
	assert.Equal(t, "安全月报", slide.Placeholders["TITLE"])
	// 结构化负载 JSON 往返后仍是 map/slice 形态
	pie, ok := slide.Placeholders["PIE"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"高危"}, pie["categories"])
}

func TestStoreSaveOverwrite(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save(context.Background(), "acme", sampleSpec())
	require.NoError(t, err)

	updated := sampleSpec()
	updated.Slides[0].Placeholders["TITLE"] = "改写后的标题"
	_, err = store.Save(context.Background(), "acme", updated)
	require.NoError(t, err)

	loaded, err := store.Load(context.Background(), "acme", "mgmt_v1")
	require.NoError(t, err)
	slide, _ := loaded.SlideByKey("cover")
	assert.Equal(t, "改写后的标题", slide.Placeholders["TITLE"])
}

func TestStoreLoadNotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load(context.Background(), "nobody", "nothing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeSlideSpecNotFound, errors.AsAppError(err).Code)
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	_, err := store.Save(context.Background(), "acme", sampleSpec())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme_mgmt_v1.json", entries[0].Name())
}
