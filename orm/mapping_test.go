package orm_test

import (
	"testing"

	"github.com/mickamy/ormrest/orm"
)

type unnamed struct{}

type valueNamed struct{}

func (valueNamed) TableName() string { return "value_named" }

type pointerNamed struct{}

func (*pointerNamed) TableName() string { return "pointer_named" }

func TestTableNameOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"fallback", orm.TableNameOf[unnamed]("unnamed_rows"), "unnamed_rows"},
		{"value receiver", orm.TableNameOf[valueNamed]("x"), "value_named"},
		{"pointer receiver", orm.TableNameOf[pointerNamed]("x"), "pointer_named"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}
