package karma

import "testing"

func TestFormatRows(t *testing.T) {
	rows := []Row{
		{Position: 1, Mention: "@alice", Karma: 10},
		{Position: 2, Mention: "Bob <Smith>", Karma: -0.333},
	}

	got := FormatRows(rows)
	want := "1 @alice <b>10.00</b>\n2 Bob &lt;Smith&gt; <b>-0.33</b>"
	if got != want {
		t.Fatalf("unexpected format:\ngot  %q\nwant %q", got, want)
	}
}

func TestFormatRowsEmpty(t *testing.T) {
	if got := FormatRows(nil); got != "" {
		t.Fatalf("expected empty string for empty rows, got %q", got)
	}
}

func TestAddCaption(t *testing.T) {
	got := AddCaption("1 @alice <b>10.00</b>")
	want := "Список самых почётных пользователей чата:\n1 @alice <b>10.00</b>"
	if got != want {
		t.Fatalf("unexpected caption:\ngot  %q\nwant %q", got, want)
	}
}

func TestAddCaptionEmptyList(t *testing.T) {
	if got := AddCaption(""); got != "Никто в чате не имеет кармы" {
		t.Fatalf("unexpected placeholder: %q", got)
	}
}

func TestAddSeparator(t *testing.T) {
	if got := AddSeparator("top"); got != "top\n..." {
		t.Fatalf("unexpected separator: %q", got)
	}
}
