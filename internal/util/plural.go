package util

// Plural picks the English form of a noun for number.
func Plural(number int, one, many string) string {
	if number == 1 || number == -1 {
		return one
	}
	return many
}
