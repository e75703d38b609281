package castore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"

	"github.com/voslund/camint/internal/fsutil"
)

const dateLayout = "060102150405Z"

//https://pki-tutorial.readthedocs.io/en/latest/cadb.html

// Record is one line of the issuance index in the openssl ca database format.
// The revocation columns are placeholders, the tool never revokes.
type Record struct {
	statusFlag       rune       //Certificate status flag (V=valid, R=revoked, E=expired)
	expirationDate   *time.Time //Certificate expiration date
	revocationDate   *time.Time //Certificate revocation date, empty if not revoked
	revocationReason string     //Certificate revocation reason if presented
	certSerialHex    string     //Certificate serial number in hex
	certFileName     string     //Certificate filename or literal string ‘unknown’
	certDN           string     //Certificate distinguished name
}

// NewIssuedRecord builds a valid-status record for a freshly signed cert.
func NewIssuedRecord(expiry time.Time, serial *big.Int, fileName, dn string) Record {
	e := expiry
	return Record{
		statusFlag:     'V',
		expirationDate: &e,
		certSerialHex:  serial.Text(16),
		certFileName:   fileName,
		certDN:         dn,
	}
}

func (r Record) SerialHex() string { return r.certSerialHex }
func (r Record) FileName() string  { return r.certFileName }
func (r Record) DN() string        { return r.certDN }

func (r Record) String() string {
	var revString string
	if r.revocationDate != nil {
		revString = r.revocationDate.Format(dateLayout)
		if r.revocationReason != "" {
			revString = fmt.Sprintf("%v,%v", r.revocationDate.Format(dateLayout), r.revocationReason)
		}
	}
	return fmt.Sprintf("%v\t%v\t%v\t%v\t%v\t%v", string(r.statusFlag), r.expirationDate.Format(dateLayout), revString,
		r.certSerialHex, r.certFileName, r.certDN)
}

// Index is the append-only issuance record of one CA, kept in ca.index.
// Appends take the same kind of file lock the serial provider uses.
type Index struct {
	locker *flock.Flock
	path   string
}

func NewIndex(path string) *Index {
	return &Index{locker: flock.New(fmt.Sprintf("%v.lock", path)), path: path}
}

// Append adds one record under the index lock.
func (i *Index) Append(rec Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	locked, err := i.locker.TryLockContext(ctx, lockPeriod)
	if err != nil {
		return fmt.Errorf("can`t lock index file %v: %w", i.path, err)
	}
	if !locked {
		return fmt.Errorf("can`t lock index file %v", i.path)
	}
	defer func() {
		_ = i.locker.Unlock()
	}()

	current, err := os.ReadFile(i.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("can`t read index file %v: %w", i.path, err)
	}
	var buf bytes.Buffer
	buf.Write(current)
	buf.WriteString(rec.String())
	buf.WriteByte('\n')
	if err := fsutil.WriteFileAtomic(i.path, &buf, 0644); err != nil {
		return fmt.Errorf("can`t write index file %v: %w", i.path, err)
	}
	return nil
}

// Records decodes the whole index. A missing file is an empty index.
func (i *Index) Records() ([]Record, error) {
	fd, err := os.Open(i.path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("can`t open index file %v: %w", i.path, err)
	}
	defer func() {
		_ = fd.Close()
	}()
	return decodeRecords(fd)
}

func decodeRecords(r io.Reader) ([]Record, error) {
	var records []Record
	br := bufio.NewReader(r)
	for {
		line, _, err := br.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("couldn't read line from index: %w", err)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		record, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("couldn't parse record %s from index: %w", line, err)
		}
		records = append(records, *record)
	}
	return records, nil
}

func parseLine(line []byte) (*Record, error) {
	split := strings.Split(string(line), "\t")
	if len(split) != 6 {
		return nil, fmt.Errorf("wrong records format: %v", string(line))
	}
	rec := new(Record)
	rec.statusFlag, _ = utf8.DecodeRuneInString(split[0])
	parsedDate, err := time.Parse(dateLayout, split[1])
	if err != nil {
		return nil, fmt.Errorf("couldn't parse date from %v : %w", split[1], err)
	}
	rec.expirationDate = &parsedDate
	if split[2] != "" {
		revoc := strings.Split(split[2], ",")
		parsedDate, err = time.Parse(dateLayout, revoc[0])
		if err != nil {
			return nil, fmt.Errorf("couldn't parse date from %v : %w", split[2], err)
		}
		rec.revocationDate = &parsedDate
		if len(revoc) == 2 {
			rec.revocationReason = revoc[1]
		}
	}
	rec.certSerialHex = split[3]
	rec.certFileName = split[4]
	rec.certDN = split[5]
	return rec, nil
}
