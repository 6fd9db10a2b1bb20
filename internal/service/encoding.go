package service

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/rs/zerolog/log"
)

// Encoding names follow the labels municipal open-data portals use in their
// dataset metadata, so the detected value can be echoed back to the client.
const (
	EncodingUTF8     = "utf-8"
	EncodingUTF8BOM  = "utf-8-sig"
	EncodingUTF16    = "utf-16"
	EncodingUTF16LE  = "utf-16-le"
	EncodingUTF16BE  = "utf-16-be"
	EncodingCP932    = "cp932"
	EncodingShiftJIS = "shift-jis"
	EncodingEUCJP    = "euc-jp"
	EncodingISO2022  = "iso-2022-jp"
)

// encodingCandidates is the trial order for files without a byte order mark.
var encodingCandidates = []string{
	EncodingUTF8,
	EncodingUTF8BOM,
	EncodingUTF16,
	EncodingUTF16LE,
	EncodingUTF16BE,
	EncodingCP932,
	EncodingShiftJIS,
	EncodingEUCJP,
	EncodingISO2022,
}

// headerKeywords are column names expected somewhere in a cultural property
// CSV. A trial decode that surfaces one of these is considered correct.
var headerKeywords = []string{"名称", "緯度", "経度", "住所", "所在地"}

// DetectEncoding picks a text encoding for raw file content. It never fails:
// byte order marks win outright, otherwise each candidate encoding is
// trial-decoded and accepted when the result contains a known header keyword,
// and UTF-8 is the fallback.
func DetectEncoding(content []byte) string {
	if bytes.HasPrefix(content, []byte{0xff, 0xfe}) {
		log.Info().Msg("BOM detected: UTF-16 LE")
		return EncodingUTF16LE
	}
	if bytes.HasPrefix(content, []byte{0xfe, 0xff}) {
		log.Info().Msg("BOM detected: UTF-16 BE")
		return EncodingUTF16BE
	}
	if bytes.HasPrefix(content, []byte{0xef, 0xbb, 0xbf}) {
		log.Info().Msg("BOM detected: UTF-8 with BOM")
		return EncodingUTF8BOM
	}

	for _, name := range encodingCandidates {
		decoded, err := decodeStrict(content, name)
		if err != nil {
			continue
		}
		for _, keyword := range headerKeywords {
			if strings.Contains(decoded, keyword) {
				log.Info().Str("encoding", name).Msg("encoding detected")
				return name
			}
		}
	}

	log.Warn().Msg("encoding detection failed, falling back to UTF-8")
	return EncodingUTF8
}

// decoderFor returns the x/text decoder for one of the supported encoding
// names. UTF-8 variants are handled by the callers directly.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch name {
	case EncodingUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), nil
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case EncodingCP932, EncodingShiftJIS:
		return japanese.ShiftJIS.NewDecoder(), nil
	case EncodingEUCJP:
		return japanese.EUCJP.NewDecoder(), nil
	case EncodingISO2022:
		return japanese.ISO2022JP.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("service: unsupported encoding %q", name)
	}
}

// decodeStrict decodes content and reports an error when the input does not
// round-trip cleanly in the given encoding. x/text decoders substitute
// U+FFFD for invalid bytes instead of failing, so the replacement rune
// doubles as the failure signal here.
func decodeStrict(content []byte, name string) (string, error) {
	switch name {
	case EncodingUTF8:
		if !utf8.Valid(content) {
			return "", fmt.Errorf("service: content is not valid UTF-8")
		}
		return string(content), nil
	case EncodingUTF8BOM:
		trimmed := bytes.TrimPrefix(content, []byte{0xef, 0xbb, 0xbf})
		if !utf8.Valid(trimmed) {
			return "", fmt.Errorf("service: content is not valid UTF-8")
		}
		return string(trimmed), nil
	}

	dec, err := decoderFor(name)
	if err != nil {
		return "", err
	}
	decoded, _, err := transform.Bytes(dec, content)
	if err != nil {
		return "", fmt.Errorf("service: decode as %s: %w", name, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", fmt.Errorf("service: content is not valid %s", name)
	}
	return string(decoded), nil
}

// decodeReplace decodes content for parsing. Undecodable bytes become the
// replacement character rather than an error, so parsing itself cannot fail
// on malformed bytes; downstream validation flags the garbage instead.
func decodeReplace(content []byte, name string) string {
	switch name {
	case EncodingUTF8:
		return strings.ToValidUTF8(string(content), string(utf8.RuneError))
	case EncodingUTF8BOM:
		trimmed := bytes.TrimPrefix(content, []byte{0xef, 0xbb, 0xbf})
		return strings.ToValidUTF8(string(trimmed), string(utf8.RuneError))
	}

	dec, err := decoderFor(name)
	if err != nil {
		return strings.ToValidUTF8(string(content), string(utf8.RuneError))
	}
	decoded, _, err := transform.Bytes(dec, content)
	if err != nil {
		return strings.ToValidUTF8(string(content), string(utf8.RuneError))
	}
	return string(decoded)
}
