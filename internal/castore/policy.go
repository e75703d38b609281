package castore

import (
	"bytes"
	"fmt"
	"text/template"
)

// The policy documents are written in openssl config syntax so a CA directory
// stays usable with the stock openssl ca tooling. They are artifacts of
// record: signing itself is native and reads the same values from code.

const caPolicyTemplate = `# Signing policy for the {{.Org}} root CA. Derived once at creation
# and reused unchanged for every issuance.
[ ca ]
default_ca = camint_ca

[ camint_ca ]
dir              = .
certificate      = $dir/ca.crt
private_key      = $dir/ca.key
serial           = $dir/ca.srl
database         = $dir/ca.index
default_days     = {{.DefaultDays}}
default_md       = sha256
policy           = camint_policy
x509_extensions  = server_cert

[ camint_policy ]
countryName            = optional
organizationName       = supplied
commonName             = supplied

[ server_cert ]
basicConstraints       = CA:FALSE
keyUsage               = digitalSignature, keyEncipherment
extendedKeyUsage       = serverAuth
`

const serverConfigTemplate = `[ req ]
prompt             = no
distinguished_name = req_dn
req_extensions     = req_ext
default_md         = sha256

[ req_dn ]
C  = XX
O  = {{.Name}}
CN = {{.Name}}

[ req_ext ]
subjectAltName = @alt_names

[ alt_names ]
DNS.1 = {{.Name}}
DNS.2 = localhost
IP.1  = 127.0.0.1
IP.2  = ::1
`

var (
	caPolicyTmpl     = template.Must(template.New("capolicy").Parse(caPolicyTemplate))
	serverConfigTmpl = template.Must(template.New("servercnf").Parse(serverConfigTemplate))
)

// RenderCAPolicy produces the openssl.cnf signing policy document.
func RenderCAPolicy(org string) []byte {
	var buf bytes.Buffer
	err := caPolicyTmpl.Execute(&buf, struct {
		Org         string
		DefaultDays int
	}{Org: org, DefaultDays: DefaultLeafDays})
	if err != nil {
		// templates are static, a failure here is a programming error
		panic(fmt.Sprintf("can't render ca policy: %v", err))
	}
	return buf.Bytes()
}

// RenderServerConfig produces the per-subject request configuration with the
// deterministic SAN block.
func RenderServerConfig(name string) []byte {
	var buf bytes.Buffer
	err := serverConfigTmpl.Execute(&buf, struct{ Name string }{Name: name})
	if err != nil {
		panic(fmt.Sprintf("can't render server config: %v", err))
	}
	return buf.Bytes()
}
