package weather

// CodeInfo is the presentation mapping for a WMO weather interpretation code.
// Reference: https://open-meteo.com/en/docs
type CodeInfo struct {
	Label     string    `json:"label"`
	Icon      string    `json:"icon"`
	IconNight string    `json:"iconNight"`
	Condition Condition `json:"condition"`
}

var codeTable = map[int]CodeInfo{
	0:  {Label: "Ciel dégagé", Icon: "sun", IconNight: "moon", Condition: ConditionClear},
	1:  {Label: "Principalement dégagé", Icon: "sun", IconNight: "moon", Condition: ConditionClear},
	2:  {Label: "Partiellement nuageux", Icon: "cloud-sun", IconNight: "cloud-moon", Condition: ConditionPartlyCloudy},
	3:  {Label: "Couvert", Icon: "cloud", IconNight: "cloud", Condition: ConditionCloudy},
	45: {Label: "Brouillard", Icon: "cloud-fog", IconNight: "cloud-fog", Condition: ConditionFog},
	48: {Label: "Brouillard givrant", Icon: "cloud-fog", IconNight: "cloud-fog", Condition: ConditionFog},
	51: {Label: "Bruine légère", Icon: "cloud-drizzle", IconNight: "cloud-drizzle", Condition: ConditionDrizzle},
	53: {Label: "Bruine modérée", Icon: "cloud-drizzle", IconNight: "cloud-drizzle", Condition: ConditionDrizzle},
	55: {Label: "Bruine dense", Icon: "cloud-drizzle", IconNight: "cloud-drizzle", Condition: ConditionDrizzle},
	56: {Label: "Bruine verglaçante légère", Icon: "cloud-drizzle", IconNight: "cloud-drizzle", Condition: ConditionDrizzle},
	57: {Label: "Bruine verglaçante dense", Icon: "cloud-drizzle", IconNight: "cloud-drizzle", Condition: ConditionDrizzle},
	61: {Label: "Pluie légère", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	63: {Label: "Pluie modérée", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	65: {Label: "Pluie forte", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	66: {Label: "Pluie verglaçante légère", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	67: {Label: "Pluie verglaçante forte", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	71: {Label: "Neige légère", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	73: {Label: "Neige modérée", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	75: {Label: "Neige forte", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	77: {Label: "Grains de neige", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	80: {Label: "Averses de pluie légères", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	81: {Label: "Averses de pluie modérées", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	82: {Label: "Averses de pluie violentes", Icon: "cloud-rain", IconNight: "cloud-rain", Condition: ConditionRain},
	85: {Label: "Averses de neige légères", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	86: {Label: "Averses de neige fortes", Icon: "snowflake", IconNight: "snowflake", Condition: ConditionSnow},
	95: {Label: "Orage", Icon: "cloud-lightning", IconNight: "cloud-lightning", Condition: ConditionThunderstorm},
	96: {Label: "Orage avec grêle légère", Icon: "cloud-lightning", IconNight: "cloud-lightning", Condition: ConditionThunderstorm},
	99: {Label: "Orage avec grêle forte", Icon: "cloud-lightning", IconNight: "cloud-lightning", Condition: ConditionThunderstorm},
}

// defaultCodeInfo covers every code the table does not know. The provider's
// code space is wider than the table; unknown codes must never fail.
var defaultCodeInfo = CodeInfo{
	Label:     "Inconnu",
	Icon:      "cloud",
	IconNight: "cloud",
	Condition: ConditionCloudy,
}

// Describe returns the presentation mapping for a WMO code. Total: every
// integer input yields a usable result.
func Describe(code int) CodeInfo {
	if info, ok := codeTable[code]; ok {
		return info
	}
	return defaultCodeInfo
}

// Label returns the French label for a WMO code.
func Label(code int) string {
	return Describe(code).Label
}

// Icon returns the icon name for a WMO code, day or night variant.
func Icon(code int, isDay bool) string {
	info := Describe(code)
	if isDay {
		return info.Icon
	}
	return info.IconNight
}

// ConditionOf returns the coarse condition bucket for a WMO code.
func ConditionOf(code int) Condition {
	return Describe(code).Condition
}
