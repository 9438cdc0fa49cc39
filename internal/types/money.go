// README: Common money value object used across modules.
package types

import "strconv"

// CurrencyFCFA is the only currency the fare model is trained on.
const CurrencyFCFA = "FCFA"

type Money struct {
	Amount   int64
	Currency string
}

func FCFA(amount int64) Money {
	return Money{Amount: amount, Currency: CurrencyFCFA}
}

func (m Money) String() string {
	return strconv.FormatInt(m.Amount, 10) + " " + m.Currency
}
