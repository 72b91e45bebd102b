package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	b, err := json.Marshal(OKT(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":0,"message":"ok","data":{"n":1}}`, string(b))

	b, err = json.Marshal(ErrorT[any](APIResponseCodeConflict, "ledger: insufficient tokens"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"code":40900,"message":"conflict","data":"ledger: insufficient tokens"}`, string(b))
}
