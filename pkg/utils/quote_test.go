package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/sqlexec/pkg/utils"
)

func TestQuoteIdentifier_DoublesEmbeddedQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, utils.QuoteIdentifier(`a"b`))
}

func TestQuoteIdentifier_UnicodeFallback(t *testing.T) {
	assert.Equal(t, `U&"caf\00e9"`, utils.QuoteIdentifier("café"))
}

func TestQuoteIdentifier_SupplementaryPlaneFallback(t *testing.T) {
	assert.Equal(t, `U&"\+01d11e"`, utils.QuoteIdentifier("𝄞"))
}

func TestQuoteLiteral_DoublesEmbeddedQuote(t *testing.T) {
	assert.Equal(t, `'it''s'`, utils.QuoteLiteral("it's"))
}

func TestDecodeQuoted_PlainRoundTrip(t *testing.T) {
	decoded, err := utils.DecodeQuoted(`"a""b"`, 0)
	require.NoError(t, err)
	assert.Equal(t, `a"b`, decoded)
}

func TestDecodeQuoted_UnicodeRoundTrip(t *testing.T) {
	decoded, err := utils.DecodeQuoted(`U&"caf\00e9"`, 0)
	require.NoError(t, err)
	assert.Equal(t, "café", decoded)
}

func TestDecodeQuoted_SupplementaryPlaneRoundTrip(t *testing.T) {
	decoded, err := utils.DecodeQuoted(`U&"\+01d11e"`, 0)
	require.NoError(t, err)
	assert.Equal(t, "𝄞", decoded)
}

func TestDecodeQuoted_UnterminatedLiteral(t *testing.T) {
	_, err := utils.DecodeQuoted(`"ab`, 0)
	require.Error(t, err)
	var target *utils.FormatError
	assert.ErrorAs(t, err, &target)
}

func TestDecodeQuoted_UnescapedDelimiter(t *testing.T) {
	_, err := utils.DecodeQuoted(`"a"b"`, 0)
	require.Error(t, err)
	var target *utils.FormatError
	assert.ErrorAs(t, err, &target)
}
