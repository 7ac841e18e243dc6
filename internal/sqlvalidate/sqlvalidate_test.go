package sqlvalidate

import "testing"

func TestValidate_RejectsSemicolon(t *testing.T) {
	res := Validate("SELECT 1; SELECT 2", ModeTool)
	if res.IsValid {
		t.Fatal("expected semicolon query to be rejected")
	}
}

func TestValidate_RejectsForbiddenKeywords_AnyCasing(t *testing.T) {
	cases := []string{
		"DROP TABLE x", "drop table x", "DrOp TaBlE x",
		"delete from x", "UPDATE x SET y=1", "insert into x values (1)",
		"alter table x", "CREATE TABLE x (y int)", "truncate table x",
		"replace into x values (1)", "PRAGMA table_info(x)",
	}
	for _, q := range cases {
		if Validate(q, ModeTool).IsValid {
			t.Errorf("expected query to be rejected: %q", q)
		}
	}
}

func TestValidate_AllowsPlainSelect(t *testing.T) {
	res := Validate("SELECT * FROM users", ModeTool)
	if !res.IsValid {
		t.Fatalf("expected valid, got error: %s", res.Error)
	}
}

func TestValidate_WidgetModeRejectsLimitAndOffset(t *testing.T) {
	for _, q := range []string{
		"SELECT * FROM users LIMIT 10",
		"select * from users limit(10)",
		"SELECT * FROM users OFFSET 5",
		"select * from users offset(5)",
	} {
		if Validate(q, ModeWidget).IsValid {
			t.Errorf("expected widget-mode rejection for %q", q)
		}
	}
}

func TestValidate_ToolModeAllowsLimitAndOffset(t *testing.T) {
	res := Validate("SELECT * FROM users LIMIT 10 OFFSET 5", ModeTool)
	if !res.IsValid {
		t.Fatalf("expected valid in tool mode, got error: %s", res.Error)
	}
}

func TestValidate_RejectsEmpty(t *testing.T) {
	if Validate("", ModeTool).IsValid {
		t.Fatal("expected empty query to be rejected")
	}
	if Validate("   ", ModeTool).IsValid {
		t.Fatal("expected whitespace-only query to be rejected")
	}
}

func TestValidate_Idempotent(t *testing.T) {
	q := "SELECT * FROM users WHERE name = 'drop the mic'"
	a := Validate(q, ModeTool)
	b := Validate(q, ModeTool)
	if a.IsValid != b.IsValid || a.Error != b.Error {
		t.Fatalf("expected idempotent verdicts, got %+v then %+v", a, b)
	}
}

func TestHasLimitOrOffset(t *testing.T) {
	if !HasLimitOrOffset("SELECT * FROM t LIMIT 5") {
		t.Error("expected LIMIT to be detected")
	}
	if !HasLimitOrOffset("SELECT * FROM t OFFSET 5") {
		t.Error("expected OFFSET to be detected")
	}
	if HasLimitOrOffset("SELECT * FROM t") {
		t.Error("expected no LIMIT/OFFSET to be detected")
	}
}
