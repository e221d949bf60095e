package common

import (
	"flag"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	fieldsVar string
	fields    []string // Hashing fields

	declared     bool
	declaredLock = &sync.Mutex{}
)

func HashFlag() {
	declaredLock.Lock()
	defer declaredLock.Unlock()

	if declared {
		return
	}
	declared = true
	flag.StringVar(&fieldsVar, "format.hash", "SamplerAddress", "List of fields to do hashing, separated by commas")
}

func ManualHashInit() error {
	if fieldsVar == "" {
		fields = nil
		return nil
	}
	fields = strings.Split(fieldsVar, ",")
	return nil
}

func HashMessageLocal(msg interface{}) string {
	return HashMessage(fields, msg)
}

// HashMessage joins the values of the given fields, each followed by a dash.
// Missing fields are skipped, so messages without them share the same key.
func HashMessage(fields []string, msg interface{}) string {
	var keyStr strings.Builder

	if msg == nil {
		return ""
	}
	vfm := reflect.Indirect(reflect.ValueOf(msg))
	if vfm.Kind() != reflect.Struct {
		return ""
	}
	for _, kf := range fields {
		fieldValue := vfm.FieldByName(kf)
		if fieldValue.IsValid() {
			fmt.Fprintf(&keyStr, "%v-", fieldValue.Interface())
		}
	}

	return keyStr.String()
}
