package pki

import (
	"crypto/x509"
	"fmt"
	"strings"
)

const validityLayout = "2006-01-02 15:04:05 MST"

// CertificateText renders the fields an operator cares about, roughly in the
// shape of `openssl x509 -text` but much shorter.
func CertificateText(cert *x509.Certificate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Certificate:\n")
	fmt.Fprintf(&b, "    Serial:     %s\n", cert.SerialNumber.Text(16))
	fmt.Fprintf(&b, "    Subject:    %s\n", cert.Subject)
	fmt.Fprintf(&b, "    Issuer:     %s\n", cert.Issuer)
	fmt.Fprintf(&b, "    Not Before: %s\n", cert.NotBefore.Format(validityLayout))
	fmt.Fprintf(&b, "    Not After:  %s\n", cert.NotAfter.Format(validityLayout))
	fmt.Fprintf(&b, "    Is CA:      %v\n", cert.IsCA)
	if len(cert.DNSNames) > 0 {
		fmt.Fprintf(&b, "    DNS Names:  %s\n", strings.Join(cert.DNSNames, ", "))
	}
	if len(cert.IPAddresses) > 0 {
		ips := make([]string, 0, len(cert.IPAddresses))
		for _, ip := range cert.IPAddresses {
			ips = append(ips, ip.String())
		}
		fmt.Fprintf(&b, "    IPs:        %s\n", strings.Join(ips, ", "))
	}
	if len(cert.ExtKeyUsage) > 0 {
		fmt.Fprintf(&b, "    Ext Usage:  %s\n", strings.Join(extUsageNames(cert.ExtKeyUsage), ", "))
	}
	return b.String()
}

// Summary is the one-line form used by list output.
func Summary(cert *x509.Certificate) string {
	return fmt.Sprintf("subject=%s issuer=%s not-after=%s",
		cert.Subject, cert.Issuer, cert.NotAfter.Format(validityLayout))
}

func extUsageNames(usages []x509.ExtKeyUsage) []string {
	names := make([]string, 0, len(usages))
	for _, u := range usages {
		switch u {
		case x509.ExtKeyUsageServerAuth:
			names = append(names, "server auth")
		case x509.ExtKeyUsageClientAuth:
			names = append(names, "client auth")
		default:
			names = append(names, fmt.Sprintf("usage(%d)", u))
		}
	}
	return names
}
