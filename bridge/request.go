package bridge

import "github.com/tidwall/sjson"

// NewRequest builds a protocol request payload: {"id":..,"method":..} plus
// optional params. It is a convenience for tests composing outbound
// traffic; the connection itself never inspects what it sends.
func NewRequest(id int, method string, params any) (string, error) {
	msg, err := sjson.Set("{}", "id", id)
	if err != nil {
		return "", err
	}
	if msg, err = sjson.Set(msg, "method", method); err != nil {
		return "", err
	}
	if params != nil {
		if msg, err = sjson.Set(msg, "params", params); err != nil {
			return "", err
		}
	}
	return msg, nil
}
