package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeContentDir(t *testing.T, stages string, sagas map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stages.json"), []byte(stages), 0o644))
	if sagas != nil {
		sagaDir := filepath.Join(dir, "sagas")
		require.NoError(t, os.Mkdir(sagaDir, 0o755))
		for name, body := range sagas {
			require.NoError(t, os.WriteFile(filepath.Join(sagaDir, name), []byte(body), 0o644))
		}
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeContentDir(t, `{"stages": [
		{"id": "history_1", "title": "Ancient Beginnings", "relatedSaga": "maurya"},
		{"id": "history_2", "title": "Golden Age", "relatedSaga": "gupta"}
	]}`, map[string]string{
		"maurya.json": `{"id": "maurya", "name": "Mauryan Empire", "games": {
			"jigsaw": {"questionBank": [{"events": [{"id": "e1"}, {"id": "e2"}]}]}
		}}`,
		"notes.txt": "ignored",
	})

	g, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, g.Stages(), 2)
	assert.Equal(t, []string{"e1", "e2"}, g.SagaQuestionIDs("maurya"))

	// history_2 references a saga with no file; it loads but never masters.
	assert.Empty(t, g.SagaQuestionIDs("gupta"))
}

func TestLoadWithoutSagaDir(t *testing.T) {
	dir := writeContentDir(t, `{"stages": [{"id": "history_1"}]}`, nil)

	g, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, g.Stages(), 1)
}

func TestLoadRejectsEmptyGraph(t *testing.T) {
	dir := writeContentDir(t, `{"stages": []}`, nil)

	_, err := Load(dir)
	assert.ErrorContains(t, err, "no stages")
}

func TestLoadRejectsSagaWithoutID(t *testing.T) {
	dir := writeContentDir(t, `{"stages": [{"id": "history_1"}]}`, map[string]string{
		"broken.json": `{"name": "No ID"}`,
	})

	_, err := Load(dir)
	assert.ErrorContains(t, err, "missing an id")
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}
