package core

import (
	"errors"
	"strconv"
	"testing"
)

type taggedUser struct {
	Username string `xlsx:"0"`
	Age      int    `xlsx:"1"`
	Nickname string `xlsx:"2"`
	Note     string
	Skipped  string `xlsx:"-"`
}

func (u *taggedUser) SetAgeImport(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("age must be a positive integer")
	}
	u.Age = n
	return nil
}

func (u *taggedUser) SetNickname(s string) error {
	u.Nickname = "~" + s
	return nil
}

func TestTaggedSchema(t *testing.T) {
	fields, err := TaggedSchema[taggedUser]()
	if err != nil {
		t.Fatalf("TaggedSchema: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("fields = %d, want 3", len(fields))
	}

	var u taggedUser
	for _, f := range fields {
		text := map[string]string{"Username": "ann", "Age": "41", "Nickname": "annie"}[f.Name]
		if err := f.Set(&u, text); err != nil {
			t.Fatalf("Set %s: %v", f.Name, err)
		}
	}

	want := taggedUser{Username: "ann", Age: 41, Nickname: "~annie"}
	if u != want {
		t.Errorf("record = %+v, want %+v", u, want)
	}
}

func TestTaggedSchema_SetterError(t *testing.T) {
	fields, err := TaggedSchema[taggedUser]()
	if err != nil {
		t.Fatalf("TaggedSchema: %v", err)
	}
	var u taggedUser
	err = fields[1].Set(&u, "abc")
	if err == nil || err.Error() != "age must be a positive integer" {
		t.Errorf("Set = %v", err)
	}
}

type untypedField struct {
	Count int `xlsx:"0"`
}

type badSetter struct {
	Count int `xlsx:"0"`
}

func (b *badSetter) SetCount(n int) {}

type unexportedField struct {
	name string `xlsx:"0"`
}

type duplicateTags struct {
	A string `xlsx:"0"`
	B string `xlsx:"0"`
}

func TestTaggedSchema_Errors(t *testing.T) {
	var cfgErr *ConfigError

	if _, err := TaggedSchema[untypedField](); !errors.As(err, &cfgErr) {
		t.Errorf("int without setter: err = %v", err)
	}
	if _, err := TaggedSchema[badSetter](); !errors.As(err, &cfgErr) {
		t.Errorf("bad setter signature: err = %v", err)
	}
	if _, err := TaggedSchema[unexportedField](); !errors.As(err, &cfgErr) {
		t.Errorf("unexported field: err = %v", err)
	}
	if _, err := TaggedSchema[string](); !errors.As(err, &cfgErr) {
		t.Errorf("non-struct: err = %v", err)
	}
}

func TestTaggedSchema_DuplicateFailsSession(t *testing.T) {
	fields, err := TaggedSchema[duplicateTags]()
	if err != nil {
		t.Fatalf("TaggedSchema: %v", err)
	}
	_, err = NewSession[duplicateTags](fields, Options{Open: failingOpener})
	if !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("err = %v, want ErrDuplicateColumn", err)
	}
}

func TestSetterName(t *testing.T) {
	for in, want := range map[string]string{"age": "SetAge", "Age": "SetAge", "birthDay": "SetBirthDay"} {
		if got := setterName(in); got != want {
			t.Errorf("setterName(%q) = %q, want %q", in, got, want)
		}
	}
}
