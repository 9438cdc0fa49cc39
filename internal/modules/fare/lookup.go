package fare

const (
	yes = "oui"
	no  = "non"
)

var yesNo = map[string]string{
	"oui": yes,
	"non": no,
	"0":   no,
	"1":   yes,
}

// weekdays is indexed from Monday (0) to Sunday (6).
var weekdays = [7]string{"lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi", "dimanche"}

func lookupYesNo(key string) string {
	if v, ok := yesNo[key]; ok {
		return v
	}
	return no
}
