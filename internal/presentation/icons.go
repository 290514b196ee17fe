package presentation

// Icon identifies one of the fixed weather images.
type Icon string

const (
	IconNone      Icon = ""
	IconSunny     Icon = "sunny"
	IconCloud     Icon = "cloud"
	IconRain      Icon = "rain"
	IconStorm     Icon = "storm"
	IconSnowflake Icon = "snowflake"
)

// iconTable maps provider icon codes to images. Night codes deliberately reuse day
// images one step "darker" (01n shows a cloud, 11n shows rain).
var iconTable = map[string]Icon{
	"01d": IconSunny,
	"02d": IconCloud,
	"03d": IconCloud,
	"04d": IconCloud,
	"10d": IconRain,
	"11d": IconStorm,
	"13d": IconSnowflake,
	"01n": IconCloud,
	"02n": IconCloud,
	"03n": IconCloud,
	"04n": IconCloud,
	"10n": IconCloud,
	"11n": IconRain,
	"13n": IconSnowflake,
}

// IconFor returns the image for code, or IconNone when the code is not in the table.
func IconFor(code string) Icon {
	if icon, ok := iconTable[code]; ok {
		return icon
	}
	return IconNone
}
