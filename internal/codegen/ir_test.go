package codegen

import "testing"

func TestRender_Nesting(t *testing.T) {
	got := Render(0,
		Line("x = 1"),
		Block{Header: "if x:", Body: []Stmt{
			Line("y = 2"),
			Block{Header: "try:", Body: []Stmt{Line("z = 3")}},
		}},
		Blank{},
		Line("done()"),
	)

	want := "x = 1\n" +
		"if x:\n" +
		"    y = 2\n" +
		"    try:\n" +
		"        z = 3\n" +
		"\n" +
		"done()\n"
	if got != want {
		t.Errorf("Render =\n%q\nwant\n%q", got, want)
	}
}

func TestRender_EmptyBlockGetsPass(t *testing.T) {
	got := Render(0, Block{Header: "def f():"})
	want := "def f():\n    pass\n"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRender_StartIndentAndGroup(t *testing.T) {
	got := Render(1, Group{Line("a"), Line("b")})
	want := "    a\n    b\n"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestPyStr(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", `"plain"`},
		{`with "quotes"`, `"with \"quotes\""`},
		{"tab\there", `"tab\there"`},
		{"new\nline", `"new\nline"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := pyStr(tt.in); got != tt.want {
			t.Errorf("pyStr(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPyHelpers(t *testing.T) {
	if got := pyOptStr(""); got != "None" {
		t.Errorf("pyOptStr(\"\") = %s, want None", got)
	}
	if got := pyOptStr("x"); got != `"x"` {
		t.Errorf("pyOptStr(x) = %s", got)
	}
	if got := pyStrList([]string{"a", "b"}); got != `["a", "b"]` {
		t.Errorf("pyStrList = %s", got)
	}
	if got := pyStrList(nil); got != "[]" {
		t.Errorf("pyStrList(nil) = %s", got)
	}
	if got := pyArgv([]string{"-m", "mod"}); got != `[sys.executable, "-m", "mod"]` {
		t.Errorf("pyArgv = %s", got)
	}
}
