package hunt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscardSinkNeverStops(t *testing.T) {
	sink := DiscardSink{}
	for i := 0; i < 3; i++ {
		assert.True(t, sink.Found(nil))
	}
}

func TestReportSinkStopsAtCount(t *testing.T) {
	account := crypto.GenerateAccount()
	sink := NewReportSink(nil, nil, 2, nil)

	assert.True(t, sink.Found(account.PrivateKey))
	assert.False(t, sink.Found(account.PrivateKey))
	assert.Equal(t, 2, sink.FoundCount())
	require.NoError(t, sink.Err())
}

func TestReportSinkCountZeroStopsImmediately(t *testing.T) {
	account := crypto.GenerateAccount()
	sink := NewReportSink(nil, nil, 0, nil)

	assert.False(t, sink.Found(account.PrivateKey))
	require.NoError(t, sink.Err())
}

func TestReportSinkPrintsAddressAndPhrase(t *testing.T) {
	account := crypto.GenerateAccount()
	var out bytes.Buffer
	sink := NewReportSink(&out, nil, 1, nil)

	assert.False(t, sink.Found(account.PrivateKey))
	require.NoError(t, sink.Err())

	line := strings.TrimSuffix(out.String(), "\n")
	parts := strings.SplitN(line, ",", 2)
	require.Len(t, parts, 2)
	assert.Equal(t, account.Address.String(), parts[0])
	assert.Len(t, strings.Fields(parts[1]), 25)
}

func TestReportSinkWritesFlushedCSVRecord(t *testing.T) {
	account := crypto.GenerateAccount()
	path := filepath.Join(t.TempDir(), "results.csv")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	defer file.Close()

	sink := NewReportSink(nil, csv.NewWriter(file), 1, nil)
	assert.False(t, sink.Found(account.PrivateKey))
	require.NoError(t, sink.Err())

	// the record must be on disk without closing the writer
	contents, err := os.Open(path)
	require.NoError(t, err)
	defer contents.Close()

	records, err := csv.NewReader(contents).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0], 2)
	assert.NotEmpty(t, records[0][0])
	assert.NotEmpty(t, records[0][1])
	assert.Equal(t, account.Address.String(), records[0][0])
}

func TestReportSinkNotifiesPerMatch(t *testing.T) {
	account := crypto.GenerateAccount()
	var matches []Match
	sink := NewReportSink(nil, nil, 2, func(m Match) { matches = append(matches, m) })

	sink.Found(account.PrivateKey)
	sink.Found(account.PrivateKey)

	require.Len(t, matches, 2)
	assert.Equal(t, account.Address.String(), matches[0].Address)
	assert.NotEmpty(t, matches[0].Phrase)
}

func TestReportSinkInvalidKeyIsFatal(t *testing.T) {
	sink := NewReportSink(nil, nil, 5, nil)

	assert.False(t, sink.Found([]byte{1, 2, 3}))
	require.Error(t, sink.Err())
}

func ExampleReportSink() {
	account := crypto.GenerateAccount()
	sink := NewReportSink(nil, nil, 1, nil)
	fmt.Println(sink.Found(account.PrivateKey))
	// Output: false
}
