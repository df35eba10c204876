package blog

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Hello World", want: "hello-world"},
		{title: "  Poomsae Día 1! ", want: "poomsae-dia-1"},
		{title: "Taekwon-Do -- Über Kicks", want: "taekwon-do-uber-kicks"},
		{title: "étoile & ñandú", want: "etoile-nandu"},
		{title: "!!!", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify() = %q, want %q", got, tt.want)
			}
		})
	}
}
