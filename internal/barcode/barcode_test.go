package barcode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEAN13Valid(t *testing.T) {
	normalized, err := Validate("4006381333931", "")
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", normalized)
}

func TestEAN13TrimsWhitespace(t *testing.T) {
	normalized, err := Validate("  4006381333931\n", "")
	require.NoError(t, err)
	assert.Equal(t, "4006381333931", normalized)
}

func TestEAN13CorruptLastDigitReportsExpected(t *testing.T) {
	_, err := Validate("4006381333930", "")
	require.Error(t, err)
	// The message must name the correct check digit so the UI can prompt a rescan.
	assert.Contains(t, err.Error(), "expected check digit 1")
}

func TestEAN13SingleDigitSensitivity(t *testing.T) {
	valid := "4006381333931"
	for i := 0; i < len(valid); i++ {
		corrupted := []byte(valid)
		corrupted[i] = '0' + (corrupted[i]-'0'+1)%10
		_, err := Validate(string(corrupted), "")
		assert.Error(t, err, "position %d", i)
	}
}

func TestUPCAValid(t *testing.T) {
	_, err := Validate("036000291452", "")
	require.NoError(t, err)
}

func TestUPCASingleDigitSensitivity(t *testing.T) {
	valid := "036000291452"
	for i := 0; i < len(valid); i++ {
		corrupted := []byte(valid)
		corrupted[i] = '0' + (corrupted[i]-'0'+1)%10
		_, err := Validate(string(corrupted), "")
		assert.Error(t, err, "position %d", i)
	}
}

func TestEAN8Valid(t *testing.T) {
	_, err := Validate("96385074", "")
	require.NoError(t, err)
}

func TestEAN8CorruptDigit(t *testing.T) {
	_, err := Validate("96385075", FormatEAN8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected check digit 4")
}

func TestUPCEFallbackAfterEAN8Failure(t *testing.T) {
	// 01234000 fails the EAN-8 checksum but is a valid UPC-E code
	// (expands to 01200000340 + check 0), so 8-digit routing accepts it.
	_, err := Validate("01234000", "")
	require.NoError(t, err)
}

func TestUPCEValidWithHint(t *testing.T) {
	_, err := Validate("01234565", FormatUPCE)
	require.NoError(t, err)
}

func TestUPCENumberSystemOutOfRange(t *testing.T) {
	for _, ns := range []byte{'3', '5', '9'} {
		code := fmt.Sprintf("%c1234565", ns)
		_, err := Validate(code, FormatUPCE)
		require.Error(t, err, "number system %c", ns)
		assert.Contains(t, err.Error(), "number system")
	}
}

func TestUPCEExpansionPatterns(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"01234000", "01200000340"}, // suffix 0: mfr d1 d2 X 00, prod 00 d3 d4 d5
		{"01234530", "01230000045"}, // suffix 3: mfr d1 d2 d3 00, prod 000 d4 d5
		{"01234540", "01234000005"}, // suffix 4: mfr d1..d4 0, prod 0000 d5
		{"01234565", "01234500006"}, // suffix 5-9: mfr d1..d5, prod 0000 X
	}
	for _, tc := range cases {
		got, err := expandUPCE(tc.code)
		require.NoError(t, err, tc.code)
		assert.Equal(t, tc.want, got, tc.code)
	}
}

func TestGenericAlphanumeric(t *testing.T) {
	_, err := Validate("LOC-A17-BIN4", "")
	require.NoError(t, err)
}

func TestGenericTooShort(t *testing.T) {
	_, err := Validate("AB1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestGenericTooLong(t *testing.T) {
	long := make([]byte, 81)
	for i := range long {
		long[i] = 'X'
	}
	_, err := Validate(string(long), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")
}

func TestNumericNonStandardLengthFallsBackToGeneric(t *testing.T) {
	// 10 digits matches no symbology — generic bounds apply.
	_, err := Validate("1234567890", "")
	require.NoError(t, err)
}

func TestEmptyPayloadRejected(t *testing.T) {
	_, err := Validate("   ", "")
	assert.Error(t, err)
}

func TestUnknownHintRejected(t *testing.T) {
	_, err := Validate("4006381333931", Format("qr"))
	assert.Error(t, err)
}

func TestHintOverridesAutoRouting(t *testing.T) {
	// 13 digits with an EAN-8 hint must fail on length, not auto-route.
	_, err := Validate("4006381333931", FormatEAN8)
	assert.Error(t, err)
}
