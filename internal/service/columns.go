package service

// importField identifies one canonical cultural property field extracted from
// a CSV row.
type importField string

const (
	fieldName      importField = "name"
	fieldNameKana  importField = "name_kana"
	fieldNameEn    importField = "name_en"
	fieldCategory  importField = "category"
	fieldType      importField = "type"
	fieldPlaceName importField = "place_name"
	fieldAddress   importField = "address"
	fieldLatitude  importField = "latitude"
	fieldLongitude importField = "longitude"
	fieldURL       importField = "url"
	fieldNote      importField = "note"
)

// columnAliases maps each canonical field to the source header names it may
// appear under across municipal open-data schemas, in priority order (first
// match wins). Fields with no matching header are simply absent for the file.
var columnAliases = []struct {
	field   importField
	aliases []string
}{
	{fieldName, []string{"名称", "name"}},
	{fieldNameKana, []string{"名称_カナ", "name_kana", "ふりがな"}},
	{fieldNameEn, []string{"名称_英語", "name_en", "英語名"}},
	{fieldCategory, []string{"文化財分類", "category", "カテゴリ"}},
	{fieldType, []string{"種類", "type", "種別"}},
	{fieldPlaceName, []string{"場所名称", "place_name", "場所名"}},
	{fieldAddress, []string{"所在地_連結表記", "address", "住所", "所在地"}},
	{fieldLatitude, []string{"緯度", "latitude", "lat"}},
	{fieldLongitude, []string{"経度", "longitude", "lng", "lon"}},
	{fieldURL, []string{"URL", "url", "参考URL"}},
	{fieldNote, []string{"備考", "note", "説明"}},
}

// requiredFields must be present and non-empty on every importable row. The
// type field is deliberately not required: it gets a sentinel default.
var requiredFields = []importField{fieldName, fieldAddress, fieldLatitude, fieldLongitude}

// detectColumnMapping resolves the headers actually present in a file to
// canonical fields, returning field -> actual header name.
func detectColumnMapping(columns []string) map[importField]string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	mapping := make(map[importField]string)
	for _, entry := range columnAliases {
		for _, alias := range entry.aliases {
			if present[alias] {
				mapping[entry.field] = alias
				break
			}
		}
	}
	return mapping
}
