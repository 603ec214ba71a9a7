package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/transparence"
	"github.com/totegamma/transparence/internal/domain"
)

func proofHex() string {
	return transparence.StringToHex(`{"cid":"bafy","url":"https://g/ipfs/bafy","lat":48.85,"lon":2.35,"title":"Bridge","createdAt":1700000000000}`)
}

func TestReadDumpAccountTxResponse(t *testing.T) {
	dump := `{"result":{"account":"rJournal","transactions":[
	  {"validated":true,"hash":"H1","meta":{"TransactionResult":"tesSUCCESS"},
	   "tx_json":{"TransactionType":"Payment","Account":"rA",
	     "Memos":[{"Memo":{"MemoType":"` + transparence.StringToHex("TRANSPARENCE_V1") + `","MemoData":"` + proofHex() + `"}}]}},
	  {"validated":false,"tx":{"TransactionType":"Payment","hash":"H2"}}
	]}}`

	txs, err := readDump(strings.NewReader(dump))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "H1", txs[0].Hash)
}

func TestReadDumpBareResult(t *testing.T) {
	dump := `{"account":"rJournal","transactions":[{"validated":true,"tx":{"TransactionType":"Payment","hash":"H3"}}]}`

	txs, err := readDump(strings.NewReader(dump))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "H3", txs[0].Hash)
}

func TestReadDumpArray(t *testing.T) {
	txs, err := readDump(strings.NewReader(`[{"TransactionType":"Payment","hash":"H4"}]`))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "H4", txs[0].Hash)

	_, err = readDump(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestZoneFlags(t *testing.T) {
	zone, err := zoneFlags{mode: "radius", lat: 1, lng: 2, centered: true}.zone()
	require.NoError(t, err)
	assert.Equal(t, domain.ZoneRadius, zone.Mode)
	assert.Equal(t, domain.DefaultRadiusKm, zone.RadiusKm)
	require.NotNil(t, zone.Center)
	assert.Equal(t, 2.0, zone.Center.Lng)

	zone, err = zoneFlags{mode: "COUNTRY", country: "France", lat: 1, centered: true}.zone()
	require.NoError(t, err)
	assert.Nil(t, zone.Center)
	require.NotNil(t, zone.SelectedCountry)

	_, err = zoneFlags{mode: "RADIUS", radiusKm: -1}.zone()
	assert.ErrorIs(t, err, domain.ErrInvalidZone)

	_, err = zoneFlags{mode: "BOX"}.zone()
	assert.ErrorIs(t, err, domain.ErrInvalidZone)
}

func TestPrintRecordsFormats(t *testing.T) {
	records := []domain.Record{{
		ID:        "ABCDEF0123456789ABCDEF",
		MediaKind: domain.MediaImage,
		Lat:       48.85,
		Lng:       2.35,
		Title:     "Bridge",
		Tags:      []string{},
		ChainRef:  "ABCDEF0123456789ABCDEF",
		Verified:  true,
	}}

	var buf bytes.Buffer
	require.NoError(t, printRecords(&buf, outputYAML, records))
	assert.Contains(t, buf.String(), "mediaKind: IMAGE")

	buf.Reset()
	require.NoError(t, printRecords(&buf, outputTable, records))
	assert.Contains(t, buf.String(), "ABCDEF0123456...")
	assert.Contains(t, buf.String(), "48.8500")

	_, err := parseOutputFormat("xml")
	assert.Error(t, err)
}
