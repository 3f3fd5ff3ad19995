package entities

// ProvinceVersion selects which province table a parse resolves against.
type ProvinceVersion string

const (
	ProvinceLegacy63  ProvinceVersion = "legacy_63"
	ProvinceCurrent34 ProvinceVersion = "current_34"
)

// CCCDInfo is the parsed citizen-ID result. The parser is a pure function;
// it never sees storage or the key subsystem.
type CCCDInfo struct {
	ProvinceCode string  `json:"province_code"`
	ProvinceName *string `json:"province_name"`
	Gender       string  `json:"gender"`
	Century      int     `json:"century"`
	BirthYear    int     `json:"birth_year"`
	Age          int     `json:"age"`
}

// ParseCCCDInput is the public parse endpoint payload.
type ParseCCCDInput struct {
	CCCD            string `json:"cccd"`
	ProvinceVersion string `json:"province_version"`
}

// ParseCCCDResponse is the public parse endpoint envelope.
type ParseCCCDResponse struct {
	Success         bool            `json:"success"`
	IsValidFormat   bool            `json:"is_valid_format"`
	IsPlausible     bool            `json:"is_plausible"`
	Data            *CCCDInfo       `json:"data"`
	ProvinceVersion ProvinceVersion `json:"province_version,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	Message         string          `json:"message,omitempty"`
}
