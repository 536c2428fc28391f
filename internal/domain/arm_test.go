package domain

import "testing"

func TestParseArm(t *testing.T) {
	tests := []struct {
		in      string
		want    Arm
		wantErr bool
	}{
		{in: "A", want: ArmControl},
		{in: "b", want: ArmTreatment},
		{in: " Control ", want: ArmControl},
		{in: "TREATMENT", want: ArmTreatment},
		{in: "C", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseArm(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseArm(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArm(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseArm(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestArmValid(t *testing.T) {
	if !ArmControl.Valid() || !ArmTreatment.Valid() {
		t.Error("expected A and B to be valid arms")
	}
	if Arm("C").Valid() {
		t.Error("expected C to be invalid")
	}
}
