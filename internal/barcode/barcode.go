// Package barcode validates raw scan payloads against their symbology's
// check digit before they reach the counting engine. Pure functions, no I/O.
package barcode

import (
	"fmt"
	"strings"
)

// Format identifies a supported symbology. An empty Format lets Validate
// route numeric input by digit count.
type Format string

const (
	FormatEAN13   Format = "ean13"
	FormatEAN8    Format = "ean8"
	FormatUPCA    Format = "upca"
	FormatUPCE    Format = "upce"
	FormatGeneric Format = "generic"
)

// Bounds for opaque codes (Code 128 payloads, 2D scan content, internal SKUs).
// No checksum exists for these — the guard only rejects obviously truncated
// or runaway reads.
const (
	minGenericLen = 4
	maxGenericLen = 80
)

// Validate checks raw against the given symbology and returns the normalized
// (trimmed) code. With no hint, all-digit input is routed by length:
// 13 → EAN-13, 12 → UPC-A, 8 → EAN-8 with UPC-E fallback; everything else is
// treated as a generic code. Checksum failures report the expected check
// digit so operators can be prompted to rescan.
func Validate(raw string, hint Format) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", fmt.Errorf("empty scan payload")
	}

	switch hint {
	case FormatEAN13:
		return code, validateEAN13(code)
	case FormatEAN8:
		return code, validateEAN8(code)
	case FormatUPCA:
		return code, validateUPCA(code)
	case FormatUPCE:
		return code, validateUPCE(code)
	case FormatGeneric:
		return code, validateGeneric(code)
	case "":
		// fall through to auto-routing
	default:
		return "", fmt.Errorf("unknown barcode format %q", hint)
	}

	if !allDigits(code) {
		return code, validateGeneric(code)
	}
	switch len(code) {
	case 13:
		return code, validateEAN13(code)
	case 12:
		return code, validateUPCA(code)
	case 8:
		if err := validateEAN8(code); err != nil {
			if upceErr := validateUPCE(code); upceErr == nil {
				return code, nil
			}
			return code, err
		}
		return code, nil
	default:
		return code, validateGeneric(code)
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// checksum computes the modulo-10 check digit over digits, weighting
// 0-indexed even positions by evenW and odd positions by oddW.
func checksum(digits string, evenW, oddW int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			sum += d * evenW
		} else {
			sum += d * oddW
		}
	}
	return (10 - sum%10) % 10
}

func validateEAN13(code string) error {
	if len(code) != 13 || !allDigits(code) {
		return fmt.Errorf("ean13 requires exactly 13 digits, got %q", code)
	}
	want := checksum(code[:12], 1, 3)
	if got := int(code[12] - '0'); got != want {
		return fmt.Errorf("ean13 checksum failed: expected check digit %d, got %d", want, got)
	}
	return nil
}

func validateEAN8(code string) error {
	if len(code) != 8 || !allDigits(code) {
		return fmt.Errorf("ean8 requires exactly 8 digits, got %q", code)
	}
	// EAN-8 inverts the EAN-13 weighting: even positions ×3, odd ×1.
	want := checksum(code[:7], 3, 1)
	if got := int(code[7] - '0'); got != want {
		return fmt.Errorf("ean8 checksum failed: expected check digit %d, got %d", want, got)
	}
	return nil
}

func validateUPCA(code string) error {
	if len(code) != 12 || !allDigits(code) {
		return fmt.Errorf("upca requires exactly 12 digits, got %q", code)
	}
	// UPC-A is EAN-13's right-aligned subset: dropping the leading zero
	// flips position parity, so even positions weigh ×3 here.
	want := checksum(code[:11], 3, 1)
	if got := int(code[11] - '0'); got != want {
		return fmt.Errorf("upca checksum failed: expected check digit %d, got %d", want, got)
	}
	return nil
}

func validateUPCE(code string) error {
	if len(code) != 8 || !allDigits(code) {
		return fmt.Errorf("upce requires exactly 8 digits, got %q", code)
	}
	expanded, err := expandUPCE(code)
	if err != nil {
		return err
	}
	// Check digit of the UPC-A expansion must match the UPC-E check digit.
	want := checksum(expanded, 3, 1)
	if got := int(code[7] - '0'); got != want {
		return fmt.Errorf("upce checksum failed: expected check digit %d, got %d", want, got)
	}
	return nil
}

// expandUPCE reverses zero suppression, producing the first 11 digits of the
// equivalent UPC-A code. The last data digit selects where the run of zeros
// was removed from the manufacturer/product split.
func expandUPCE(code string) (string, error) {
	ns := code[0]
	if ns > '2' {
		return "", fmt.Errorf("upce number system digit must be 0-2, got %c", ns)
	}
	d := code[1:7]
	var mfr, prod string
	switch last := d[5]; last {
	case '0', '1', '2':
		mfr = d[0:2] + string(last) + "00"
		prod = "00" + d[2:5]
	case '3':
		mfr = d[0:3] + "00"
		prod = "000" + d[3:5]
	case '4':
		mfr = d[0:4] + "0"
		prod = "0000" + d[4:5]
	default: // 5-9
		mfr = d[0:5]
		prod = "0000" + string(last)
	}
	return string(ns) + mfr + prod, nil
}

func validateGeneric(code string) error {
	if len(code) < minGenericLen {
		return fmt.Errorf("code %q too short: likely truncated read (minimum %d characters)", code, minGenericLen)
	}
	if len(code) > maxGenericLen {
		return fmt.Errorf("code too long: %d characters exceeds maximum %d", len(code), maxGenericLen)
	}
	return nil
}
