package fee

import "encoding/json"

// Amount is an optional satoshi value. The zero value is None.
type Amount struct {
	value uint64
	ok    bool
}

func Some(v uint64) Amount { return Amount{value: v, ok: true} }

func None() Amount { return Amount{} }

func (a Amount) Get() (uint64, bool) { return a.value, a.ok }

func (a Amount) IsSome() bool { return a.ok }

// OrZero returns the value, or 0 for None.
func (a Amount) OrZero() uint64 {
	if !a.ok {
		return 0
	}
	return a.value
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.ok {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = None()
		return nil
	}
	var v uint64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*a = Some(v)
	return nil
}
