package usecases

import (
	"time"

	"cccd-api.backend/internal/domain/entities"
)

// CCCDParser is the parsing collaborator the key subsystem guards: a pure
// function over the 12-digit payload, no storage, no side effects.
type CCCDParser interface {
	Parse(cccd string, version entities.ProvinceVersion) (*entities.CCCDInfo, []string)
}

// StaticCCCDParser parses citizen-ID numbers with fixed lookups: substring
// slicing, the gender-digit century table, and a static province map.
//
// Layout: PPP G YY NNNNNN — province code, gender/century digit, two-digit
// birth year, six random digits.
type StaticCCCDParser struct {
	now func() time.Time
}

func NewCCCDParser() *StaticCCCDParser {
	return &StaticCCCDParser{now: time.Now}
}

// Parse assumes the payload already passed format validation (exactly 12
// digits). It returns the parsed fields plus plausibility warnings.
func (p *StaticCCCDParser) Parse(cccd string, version entities.ProvinceVersion) (*entities.CCCDInfo, []string) {
	warnings := []string{}

	provinceCode := cccd[:3]
	genderDigit := int(cccd[3] - '0')
	yearDigits := int(cccd[4]-'0')*10 + int(cccd[5]-'0')

	// Gender digit encodes both sex (even male, odd female) and century:
	// 0-1 → 1900s, 2-3 → 2000s, and so on.
	century := 20 + genderDigit/2
	birthYear := (century-1)*100 + yearDigits
	gender := "male"
	if genderDigit%2 == 1 {
		gender = "female"
	}

	info := &entities.CCCDInfo{
		ProvinceCode: provinceCode,
		Gender:       gender,
		Century:      century,
		BirthYear:    birthYear,
	}

	if name, ok := provinceName(provinceCode, version); ok {
		info.ProvinceName = &name
	} else {
		warnings = append(warnings, "province_code_not_found")
	}

	currentYear := p.now().Year()
	if birthYear > currentYear {
		warnings = append(warnings, "birth_year_in_future")
	} else {
		info.Age = currentYear - birthYear
	}

	return info, warnings
}

// MaskCCCD hides the middle of a citizen-ID number for logs and usage rows.
// The raw payload is never stored or logged.
func MaskCCCD(cccd string) string {
	if len(cccd) <= 4 {
		masked := make([]byte, len(cccd))
		for i := range masked {
			masked[i] = '*'
		}
		return string(masked)
	}
	return cccd[:3] + "******" + cccd[len(cccd)-3:]
}

// ResolveProvinceVersion canonicalizes the requested province table,
// accepting the historical aliases. ok=false means the value is invalid.
func ResolveProvinceVersion(requested string, defaultVersion entities.ProvinceVersion) (version entities.ProvinceVersion, warnings []string, ok bool) {
	switch requested {
	case "":
		return defaultVersion, nil, true
	case string(entities.ProvinceLegacy63), string(entities.ProvinceCurrent34):
		return entities.ProvinceVersion(requested), nil, true
	case "legacy_64":
		return entities.ProvinceLegacy63, []string{"province_version_alias_legacy_64"}, true
	case "current_63":
		return entities.ProvinceCurrent34, []string{"province_version_alias_current_63"}, true
	}
	return "", nil, false
}

func provinceName(code string, version entities.ProvinceVersion) (string, bool) {
	if version == entities.ProvinceLegacy63 {
		name, ok := legacyProvinces[code]
		return name, ok
	}
	name, ok := currentProvinces[code]
	return name, ok
}

// Pre-merger 63-province table, keyed by the three-digit CCCD prefix.
var legacyProvinces = map[string]string{
	"001": "Hà Nội",
	"002": "Hà Giang",
	"004": "Cao Bằng",
	"006": "Bắc Kạn",
	"008": "Tuyên Quang",
	"010": "Lào Cai",
	"011": "Điện Biên",
	"012": "Lai Châu",
	"014": "Sơn La",
	"015": "Yên Bái",
	"017": "Hoà Bình",
	"019": "Thái Nguyên",
	"020": "Lạng Sơn",
	"022": "Quảng Ninh",
	"024": "Bắc Giang",
	"025": "Phú Thọ",
	"026": "Vĩnh Phúc",
	"027": "Bắc Ninh",
	"030": "Hải Dương",
	"031": "Hải Phòng",
	"033": "Hưng Yên",
	"034": "Thái Bình",
	"035": "Hà Nam",
	"036": "Nam Định",
	"037": "Ninh Bình",
	"038": "Thanh Hoá",
	"040": "Nghệ An",
	"042": "Hà Tĩnh",
	"044": "Quảng Bình",
	"045": "Quảng Trị",
	"046": "Thừa Thiên Huế",
	"048": "Đà Nẵng",
	"049": "Quảng Nam",
	"051": "Quảng Ngãi",
	"052": "Bình Định",
	"054": "Phú Yên",
	"056": "Khánh Hoà",
	"058": "Ninh Thuận",
	"060": "Bình Thuận",
	"062": "Kon Tum",
	"064": "Gia Lai",
	"066": "Đắk Lắk",
	"067": "Đắk Nông",
	"068": "Lâm Đồng",
	"070": "Bình Phước",
	"072": "Tây Ninh",
	"074": "Bình Dương",
	"075": "Đồng Nai",
	"077": "Bà Rịa - Vũng Tàu",
	"079": "Thành phố Hồ Chí Minh",
	"080": "Long An",
	"082": "Tiền Giang",
	"083": "Bến Tre",
	"084": "Trà Vinh",
	"086": "Vĩnh Long",
	"087": "Đồng Tháp",
	"089": "An Giang",
	"091": "Kiên Giang",
	"092": "Cần Thơ",
	"093": "Hậu Giang",
	"094": "Sóc Trăng",
	"095": "Bạc Liêu",
	"096": "Cà Mau",
}

// Post-merger 34-province table. CCCD prefixes are never reissued, so old
// codes resolve to the province that absorbed them.
var currentProvinces = map[string]string{
	"001": "Hà Nội",
	"002": "Tuyên Quang",
	"004": "Cao Bằng",
	"006": "Thái Nguyên",
	"008": "Tuyên Quang",
	"010": "Lào Cai",
	"011": "Điện Biên",
	"012": "Lai Châu",
	"014": "Sơn La",
	"015": "Lào Cai",
	"017": "Phú Thọ",
	"019": "Thái Nguyên",
	"020": "Lạng Sơn",
	"022": "Quảng Ninh",
	"024": "Bắc Ninh",
	"025": "Phú Thọ",
	"026": "Phú Thọ",
	"027": "Bắc Ninh",
	"030": "Hải Phòng",
	"031": "Hải Phòng",
	"033": "Hưng Yên",
	"034": "Hưng Yên",
	"035": "Ninh Bình",
	"036": "Ninh Bình",
	"037": "Ninh Bình",
	"038": "Thanh Hoá",
	"040": "Nghệ An",
	"042": "Hà Tĩnh",
	"044": "Quảng Trị",
	"045": "Quảng Trị",
	"046": "Thành phố Huế",
	"048": "Đà Nẵng",
	"049": "Đà Nẵng",
	"051": "Quảng Ngãi",
	"052": "Gia Lai",
	"054": "Đắk Lắk",
	"056": "Khánh Hoà",
	"058": "Khánh Hoà",
	"060": "Lâm Đồng",
	"062": "Quảng Ngãi",
	"064": "Gia Lai",
	"066": "Đắk Lắk",
	"067": "Lâm Đồng",
	"068": "Lâm Đồng",
	"070": "Đồng Nai",
	"072": "Tây Ninh",
	"074": "Thành phố Hồ Chí Minh",
	"075": "Đồng Nai",
	"077": "Thành phố Hồ Chí Minh",
	"079": "Thành phố Hồ Chí Minh",
	"080": "Tây Ninh",
	"082": "Đồng Tháp",
	"083": "Vĩnh Long",
	"084": "Vĩnh Long",
	"086": "Vĩnh Long",
	"087": "Đồng Tháp",
	"089": "An Giang",
	"091": "An Giang",
	"092": "Cần Thơ",
	"093": "Cần Thơ",
	"094": "Cần Thơ",
	"095": "Cà Mau",
	"096": "Cà Mau",
}
