package service

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hengadev/errsx"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// TagName is the struct tag read by FieldAccessor.
//
//	Email      string  `pii:"encrypt,index=EmailIndex"`
//	EmailIndex string
//	Phone      *string `pii:"encrypt"`
//
// Supported options are "index=<Field>" naming the sibling field that receives the blind
// index, and "scope=<name>" overriding the default index scope of "<type>.<field>".
// Tagged fields must be string or *string. Empty strings and nil pointers are treated
// as absent and stored as-is. Nested structs are walked recursively.
const TagName = "pii"

var timeType = reflect.TypeOf(time.Time{})

// FieldAccessor applies field encryption to tagged entity structs.
//
// Repositories call Seal on the copy of an entity they are about to persist and Open on
// every row they scan, so domain code and API serialization only ever see plaintext.
type FieldAccessor struct {
	cipher  FieldCipher
	indexer BlindIndexer
}

// NewFieldAccessor creates a FieldAccessor.
func NewFieldAccessor(cipher FieldCipher, indexer BlindIndexer) *FieldAccessor {
	return &FieldAccessor{cipher: cipher, indexer: indexer}
}

// NewFieldAccessorFromKey builds the cipher and blind indexer for key.
func NewFieldAccessorFromKey(key *cryptoDomain.FieldKey) (*FieldAccessor, error) {
	cipher, err := NewFieldCipher(key)
	if err != nil {
		return nil, err
	}
	indexer, err := NewBlindIndexer(key)
	if err != nil {
		return nil, err
	}
	return NewFieldAccessor(cipher, indexer), nil
}

// Seal encrypts every tagged field of the struct v points to and fills its blind index
// fields. Failures for individual fields are collected and returned together.
func (a *FieldAccessor) Seal(v any) error {
	sv, err := structValue(v)
	if err != nil {
		return err
	}

	var errs errsx.Map
	a.seal(sv, "", &errs)

	if !errs.IsEmpty() {
		return errs.AsError()
	}
	return nil
}

// Open decrypts every tagged field of the struct v points to.
//
// A field that does not authenticate is cleared and the remaining fields are still
// decrypted; the result is a *cryptoDomain.CorruptRecordError naming every unreadable
// field. Callers decide whether to fail, omit or flag the record.
func (a *FieldAccessor) Open(v any, recordType, recordID string) error {
	sv, err := structValue(v)
	if err != nil {
		return err
	}

	failed := make(map[string]error)
	a.open(sv, "", failed)

	if len(failed) > 0 {
		return &cryptoDomain.CorruptRecordError{
			RecordType: recordType,
			RecordID:   recordID,
			Fields:     failed,
		}
	}
	return nil
}

// Encrypt seals a single value outside of an entity, e.g. the audit actor.
func (a *FieldAccessor) Encrypt(plaintext string) (string, error) {
	return a.cipher.Encrypt(plaintext)
}

// Decrypt opens a single envelope produced by Encrypt.
func (a *FieldAccessor) Decrypt(envelope string) (string, error) {
	return a.cipher.Decrypt(envelope)
}

// Index returns the blind index used to search the attribute identified by scope.
func (a *FieldAccessor) Index(scope, value string) string {
	return a.indexer.BlindIndex(scope, value)
}

func (a *FieldAccessor) seal(sv reflect.Value, prefix string, errs *errsx.Map) {
	st := sv.Type()

	for i := range st.NumField() {
		field := st.Field(i)
		fv := sv.Field(i)
		if !fv.CanSet() {
			continue
		}
		path := prefix + field.Name

		tag, ok := field.Tag.Lookup(TagName)
		if !ok {
			if nested, ok := nestedStruct(fv); ok {
				a.seal(nested, path+".", errs)
			}
			continue
		}

		opts := parseTag(tag)
		if !opts.encrypt {
			continue
		}

		plaintext, present, err := readString(fv)
		if err != nil {
			errs.Set(path, err)
			continue
		}

		if opts.index != "" {
			idx := sv.FieldByName(opts.index)
			scope := opts.scope
			if scope == "" {
				scope = strings.ToLower(st.Name() + "." + field.Name)
			}
			value := ""
			if present {
				value = a.indexer.BlindIndex(scope, plaintext)
			}
			if err := writeString(idx, value, present); err != nil {
				errs.Set(path+"."+opts.index, err)
				continue
			}
		}

		if !present {
			continue
		}

		envelope, err := a.cipher.Encrypt(plaintext)
		if err != nil {
			errs.Set(path, err)
			continue
		}
		if err := writeString(fv, envelope, true); err != nil {
			errs.Set(path, err)
		}
	}
}

func (a *FieldAccessor) open(sv reflect.Value, prefix string, failed map[string]error) {
	st := sv.Type()

	for i := range st.NumField() {
		field := st.Field(i)
		fv := sv.Field(i)
		if !fv.CanSet() {
			continue
		}
		path := prefix + field.Name

		tag, ok := field.Tag.Lookup(TagName)
		if !ok {
			if nested, ok := nestedStruct(fv); ok {
				a.open(nested, path+".", failed)
			}
			continue
		}

		if !parseTag(tag).encrypt {
			continue
		}

		envelope, present, err := readString(fv)
		if err != nil {
			failed[path] = err
			continue
		}
		if !present {
			continue
		}

		plaintext, err := a.cipher.Decrypt(envelope)
		if err != nil {
			failed[path] = err
			_ = writeString(fv, "", true)
			continue
		}
		_ = writeString(fv, plaintext, true)
	}
}

type tagOptions struct {
	encrypt bool
	index   string
	scope   string
}

func parseTag(tag string) tagOptions {
	var opts tagOptions
	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "encrypt":
			opts.encrypt = true
		case strings.HasPrefix(part, "index="):
			opts.index = strings.TrimPrefix(part, "index=")
		case strings.HasPrefix(part, "scope="):
			opts.scope = strings.TrimPrefix(part, "scope=")
		}
	}
	return opts
}

func structValue(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("field accessor: expected pointer to struct, got %T", v)
	}
	return rv.Elem(), nil
}

// nestedStruct returns the struct value to recurse into, if fv holds one.
func nestedStruct(fv reflect.Value) (reflect.Value, bool) {
	switch fv.Kind() {
	case reflect.Struct:
		if fv.Type() == timeType {
			return reflect.Value{}, false
		}
		return fv, true
	case reflect.Pointer:
		if fv.IsNil() || fv.Elem().Kind() != reflect.Struct || fv.Elem().Type() == timeType {
			return reflect.Value{}, false
		}
		return fv.Elem(), true
	default:
		return reflect.Value{}, false
	}
}

// readString reads a string or *string field. Empty and nil values are not present.
func readString(fv reflect.Value) (string, bool, error) {
	switch {
	case fv.Kind() == reflect.String:
		s := fv.String()
		return s, s != "", nil
	case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.String:
		if fv.IsNil() {
			return "", false, nil
		}
		s := fv.Elem().String()
		return s, s != "", nil
	default:
		return "", false, fmt.Errorf("unsupported field type %s", fv.Type())
	}
}

// writeString stores value into a string or *string field. A *string field is set to nil
// when present is false.
func writeString(fv reflect.Value, value string, present bool) error {
	if !fv.IsValid() || !fv.CanSet() {
		return fmt.Errorf("field is missing or not settable")
	}

	switch {
	case fv.Kind() == reflect.String:
		fv.SetString(value)
		return nil
	case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.String:
		if !present {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().SetString(value)
		fv.Set(ptr)
		return nil
	default:
		return fmt.Errorf("unsupported field type %s", fv.Type())
	}
}
