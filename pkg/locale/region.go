package locale

import "slotkeeper/pkg/model"

const (
	DefaultCountry  = "MY"
	DefaultTimezone = "Asia/Kuala_Lumpur"
)

type Region struct {
	Category model.LocationCategory
	// Aliases are matched as whole words against a normalized address.
	Aliases []string
}

// Regions is the fixed table of internally served service regions.
// Order is significant: it is the order categories are reported in.
var Regions = []Region{
	{model.LocationJohor, []string{"johor", "johore", "johor bahru", "jb"}},
	{model.LocationKedah, []string{"kedah", "alor setar", "alor star"}},
	{model.LocationKelantan, []string{"kelantan", "kota bharu"}},
	{model.LocationMelaka, []string{"melaka", "malacca"}},
	{model.LocationNegeriSembilan, []string{"negeri sembilan", "n sembilan", "seremban"}},
	{model.LocationPahang, []string{"pahang", "kuantan"}},
	{model.LocationPerak, []string{"perak", "ipoh"}},
	{model.LocationPerlis, []string{"perlis", "kangar"}},
	{model.LocationPenang, []string{"penang", "pulau pinang", "p pinang", "george town", "georgetown", "butterworth", "bayan lepas"}},
	{model.LocationSabah, []string{"sabah", "kota kinabalu"}},
	{model.LocationSarawak, []string{"sarawak", "kuching", "miri"}},
	{model.LocationSelangor, []string{"selangor", "petaling jaya", "shah alam", "subang jaya", "klang", "pj"}},
	{model.LocationTerengganu, []string{"terengganu", "kuala terengganu"}},
	{model.LocationKualaLumpur, []string{"kuala lumpur", "kl", "wp kuala lumpur", "wilayah persekutuan kuala lumpur"}},
	{model.LocationLabuan, []string{"labuan"}},
	{model.LocationPutrajaya, []string{"putrajaya"}},
}

var categories = func() map[model.LocationCategory]struct{} {
	m := make(map[model.LocationCategory]struct{}, len(Regions))
	for _, r := range Regions {
		m[r.Category] = struct{}{}
	}
	return m
}()

// IsKnownCategory reports whether c is a served region or the external marker.
func IsKnownCategory(c model.LocationCategory) bool {
	if c == model.LocationExternal {
		return true
	}
	_, ok := categories[c]
	return ok
}
