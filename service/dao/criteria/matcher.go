package criteria

import (
	"strings"

	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/service/dao"
)

// FilterByState reports whether state satisfies every State parameter.
// Values may be a process.State, a []process.State, a state name or a list
// of names. Other parameters are ignored.
func FilterByState(state process.State, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != dao.StateParameter {
			continue
		}
		if !matchState(state, parameter.Value) {
			return false
		}
	}
	return true
}

func matchState(state process.State, value interface{}) bool {
	switch actual := value.(type) {
	case process.State:
		return state == actual
	case []process.State:
		for _, candidate := range actual {
			if state == candidate {
				return true
			}
		}
		return false
	case string:
		return strings.EqualFold(state.String(), actual)
	case []string:
		for _, candidate := range actual {
			if strings.EqualFold(state.String(), candidate) {
				return true
			}
		}
		return false
	}
	return true
}
