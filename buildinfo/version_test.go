package buildinfo

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Print(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Print(&buf))
	assert.Regexp(t, `App:\s+"fishyinventory"`, buf.String())
	assert.Regexp(t, `\nVersion:\s+"unknown"`, buf.String())
}

func Test_JSON(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, JSON(&buf))

	var out map[string]string
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, Unknown, out["version"])
	assert.NotEmpty(t, out["go_version"])
}

func Test_UserAgent(t *testing.T) {
	assert.Equal(t, "fishyinventory/unknown", UserAgent())
}
