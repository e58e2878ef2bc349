package fingerprint

import "testing"

func TestDefaultDeterministic(t *testing.T) {
	fp := Default()
	a, err := fp.Fingerprint([]byte("func main() {\n\treturn\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := fp.Fingerprint([]byte("func main() {\n\treturn\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("identical content produced different fingerprints")
	}
}

func TestDefaultWhitespaceInsensitive(t *testing.T) {
	fp := Default()
	a, err := fp.Fingerprint([]byte("func main() {\n\treturn\n}\n"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := fp.Fingerprint([]byte("func main()   {\n\n\treturn\n}\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("reformatted content with equivalent tokens produced different fingerprints")
	}
}

func TestDefaultContentSensitive(t *testing.T) {
	fp := Default()
	a, err := fp.Fingerprint([]byte("func main() { return 1 }"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := fp.Fingerprint([]byte("func main() { return 2 }"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different content produced identical fingerprints")
	}
}
