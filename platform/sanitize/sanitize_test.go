package sanitize

import "testing"

func TestTextStripsTagsAndEncodedTags(t *testing.T) {
	got := Text("  <b>Site visit</b> &lt;script&gt;alert(1)&lt;/script&gt; done ")
	if got != "Site visit alert(1) done" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestTextCollapsesBlankLines(t *testing.T) {
	got := Text("line one\r\n\r\n\r\n\r\nline two")
	if got != "line one\n\nline two" {
		t.Fatalf("unexpected result %q", got)
	}
}

func TestListDropsEmptyEntries(t *testing.T) {
	got := List([]string{"Call bank", " <br> ", "Share brochure"})
	if len(got) != 2 || got[0] != "Call bank" || got[1] != "Share brochure" {
		t.Fatalf("unexpected list %#v", got)
	}
}

func TestTextKeepsComparisonSigns(t *testing.T) {
	cases := []string{
		"Budget < 50L, wants > 2 bedrooms",
		"Price 1<2 crore, floor >3",
		"<3 the balcony view",
	}
	for _, in := range cases {
		if got := Text(in); got != in {
			t.Fatalf("expected %q unchanged, got %q", in, got)
		}
	}
}
