package common

import (
	"encoding"
	"flag"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var (
	EtypeName = map[uint32]string{
		0x806:  "ARP",
		0x800:  "IPv4",
		0x86dd: "IPv6",
	}
	ProtoName = map[uint32]string{
		1:   "ICMP",
		6:   "TCP",
		17:  "UDP",
		58:  "ICMPv6",
		132: "SCTP",
	}
	IcmpTypeName = map[uint32]string{
		0:  "EchoReply",
		3:  "DestinationUnreachable",
		8:  "Echo",
		9:  "RouterAdvertisement",
		10: "RouterSolicitation",
		11: "TimeExceeded",
	}
	Icmp6TypeName = map[uint32]string{
		1:   "DestinationUnreachable",
		2:   "PacketTooBig",
		3:   "TimeExceeded",
		128: "EchoRequest",
		129: "EchoReply",
		133: "RouterSolicitation",
		134: "RouterAdvertisement",
	}

	RenderExtras = map[string]RenderExtraFunction{
		"EtypeName": RenderExtraFunctionEtypeName,
		"ProtoName": RenderExtraFunctionProtoName,
		"IcmpName":  RenderExtraFunctionIcmpName,
	}

	selectorVar string
	selector    []string // Hashing fields

	selectorDeclared     bool
	selectorDeclaredLock = &sync.Mutex{}
)

func SelectorFlag() {
	selectorDeclaredLock.Lock()
	defer selectorDeclaredLock.Unlock()

	if selectorDeclared {
		return
	}
	selectorDeclared = true
	flag.StringVar(&selectorVar, "format.selector", "", "List of fields to output, separated by commas (empty for all, EtypeName, ProtoName and IcmpName are computed)")
}

func ManualSelectorInit() error {
	if selectorVar == "" {
		selector = nil
		return nil
	}
	selector = strings.Split(selectorVar, ",")
	return nil
}

type RenderExtraFunction func(interface{}) string

func RenderExtraFetchNumbers(msg interface{}, fields []string) []uint64 {
	vfm := reflect.ValueOf(msg)
	vfm = reflect.Indirect(vfm)

	values := make([]uint64, len(fields))
	for i, kf := range fields {
		fieldValue := vfm.FieldByName(kf)
		if fieldValue.IsValid() && fieldValue.CanUint() {
			values[i] = fieldValue.Uint()
		}
	}

	return values
}

func RenderExtraFunctionEtypeName(msg interface{}) string {
	num := RenderExtraFetchNumbers(msg, []string{"Etype"})
	return EtypeName[uint32(num[0])]
}

func RenderExtraFunctionProtoName(msg interface{}) string {
	num := RenderExtraFetchNumbers(msg, []string{"Proto"})
	return ProtoName[uint32(num[0])]
}
func RenderExtraFunctionIcmpName(msg interface{}) string {
	num := RenderExtraFetchNumbers(msg, []string{"Proto", "IcmpCode", "IcmpType"})
	return IcmpCodeType(uint32(num[0]), uint32(num[1]), uint32(num[2]))
}

func IcmpCodeType(proto, icmpCode, icmpType uint32) string {
	if proto == 1 {
		return IcmpTypeName[icmpType]
	} else if proto == 58 {
		return Icmp6TypeName[icmpType]
	}
	return ""
}

func FormatMessageReflectText(msg interface{}, ext string) string {
	return FormatMessageReflectCustom(msg, ext, "", " ", "=", false)
}

func FormatMessageReflectJSON(msg interface{}, ext string) string {
	return fmt.Sprintf("{%s}", FormatMessageReflectCustom(msg, ext, "\"", ",", ":", true))
}

// renderValue prints addresses and other text marshalers in their text
// form, slices as [a,b] and everything else with %v.
func renderValue(fieldValue reflect.Value) (string, bool) {
	if fieldValue.CanInterface() {
		if tm, ok := fieldValue.Interface().(encoding.TextMarshaler); ok {
			text, err := tm.MarshalText()
			if err != nil {
				return "", true
			}
			return string(text), true
		}
	}
	switch fieldValue.Kind() {
	case reflect.String:
		return fieldValue.String(), true
	case reflect.Slice:
		c := fieldValue.Len()
		values := make([]string, c)
		for i := 0; i < c; i++ {
			values[i] = fmt.Sprintf("%v", fieldValue.Index(i).Interface())
		}
		return "[" + strings.Join(values, ",") + "]", false
	default:
		return fmt.Sprintf("%v", fieldValue.Interface()), false
	}
}

// FormatMessageReflectCustom renders the exported fields of a struct, or the
// fields named by -format.selector, as name/value pairs.
func FormatMessageReflectCustom(msg interface{}, ext, quotes, sep, sign string, null bool) string {
	vfm := reflect.ValueOf(msg)
	vfm = reflect.Indirect(vfm)
	if vfm.Kind() != reflect.Struct {
		return ""
	}
	vft := vfm.Type()

	customSelector := selector
	if len(customSelector) == 0 {
		for i := 0; i < vft.NumField(); i++ {
			if vft.Field(i).IsExported() {
				customSelector = append(customSelector, vft.Field(i).Name)
			}
		}
	}

	fstr := make([]string, 0, len(customSelector))
	for _, s := range customSelector {
		if renderer, ok := RenderExtras[s]; ok {
			fstr = append(fstr, fmt.Sprintf("%s%s%s%s%q", quotes, s, quotes, sign, renderer(msg)))
			continue
		}
		fieldValue := vfm.FieldByName(s)
		if !fieldValue.IsValid() {
			continue
		}
		value, isText := renderValue(fieldValue)
		if isText {
			fstr = append(fstr, fmt.Sprintf("%s%s%s%s%q", quotes, s, quotes, sign, value))
		} else if value == "" && null {
			fstr = append(fstr, fmt.Sprintf("%s%s%s%snull", quotes, s, quotes, sign))
		} else {
			fstr = append(fstr, fmt.Sprintf("%s%s%s%s%s", quotes, s, quotes, sign, value))
		}
	}
	if ext != "" {
		fstr = append(fstr, ext)
	}

	return strings.Join(fstr, sep)
}
