package classifier

import "testing"

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Verdict
	}{
		{name: "bare yes", reply: "yes", want: Standup},
		{name: "bare no", reply: "no", want: NotStandup},
		{name: "capitalized with period", reply: "Yes.", want: Standup},
		{name: "upper no", reply: "NO", want: NotStandup},
		{name: "true", reply: "True", want: Standup},
		{name: "false", reply: "False", want: NotStandup},
		{name: "single letter y", reply: "y", want: Standup},
		{name: "single letter n", reply: "N", want: NotStandup},
		{name: "markdown bold", reply: "**Yes**", want: Standup},
		{name: "quoted", reply: `"no"`, want: NotStandup},
		{name: "leading whitespace", reply: "\n\n  yes\n", want: Standup},
		{name: "first word wins", reply: "No, although the yes man cameo is funny.", want: NotStandup},
		{name: "yes then explanation", reply: "Yes - a live set recorded on stage; no plot.", want: Standup},
		{name: "preamble then answer", reply: "Answer: yes", want: Standup},
		{name: "preamble negative", reply: "My answer is no.", want: NotStandup},
		{name: "conflicting tokens", reply: "Maybe yes, maybe no.", want: Unknown},
		{name: "neither token", reply: "I cannot determine this.", want: Unknown},
		{name: "negation word alone", reply: "It is not a special.", want: Unknown},
		{name: "empty", reply: "", want: Unknown},
		{name: "punctuation only", reply: "...", want: Unknown},
		{name: "yes inside word", reply: "Yesterday's news", want: Unknown},
		{name: "contraction", reply: "I don't know", want: Unknown},
		{name: "code fence", reply: "```\nfalse\n```", want: NotStandup},
		{name: "no with period", reply: "No.", want: NotStandup},
		{name: "no then reason", reply: "No, it is a narrative film.", want: NotStandup},
		{name: "no dash reason", reply: "No - it has a plot.", want: NotStandup},
		{name: "no idea", reply: "No idea.", want: Unknown},
		{name: "no way to tell", reply: "No way to tell from this summary.", want: Unknown},
		{name: "not applicable", reply: "N/A", want: Unknown},
		{name: "not applicable lower", reply: "n/a.", want: Unknown},
		{name: "slash pair", reply: "yes/no", want: Unknown},
		{name: "letter inside sentence", reply: "n is my answer", want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVerdict(tt.reply); got != tt.want {
				t.Fatalf("ParseVerdict(%q) = %v, want %v", tt.reply, got, tt.want)
			}
		})
	}
}

func TestVerdictString(t *testing.T) {
	if Standup.String() != "standup" || NotStandup.String() != "not_standup" || Unknown.String() != "unknown" {
		t.Fatalf("unexpected verdict names: %s %s %s", Standup, NotStandup, Unknown)
	}
}
