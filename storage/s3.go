package storage

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

// S3Store is an implementation of Store backed by AWS S3. Each pair is an
// object whose name is the hex-encoded key.
type S3Store struct {
	profile string
	region  string
	bucket  string

	mu     sync.Mutex
	client *s3.S3
}

func NewS3Store(profile, region, bucket string) *S3Store {
	return &S3Store{
		profile: profile,
		region:  region,
		bucket:  bucket,
	}
}

func (s *S3Store) Get(key string) (value string, err error) {
	client, err := s.ensureClient()
	if err != nil {
		return "", err
	}
	hexKey := fmt.Sprintf("%x", key)
	output, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(hexKey),
	})
	if err != nil {
		if rfErr, ok := err.(awserr.RequestFailure); ok {
			if rfErr.StatusCode() == http.StatusNotFound {
				return "", fmt.Errorf("%.40q: %w", key, ErrNotFound)
			}
		}
		return "", err
	}
	defer func() {
		if err := output.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":  "get",
				"key": hexKey,
			}).Warning("Could not close response body")
		}
	}()
	b, err := ioutil.ReadAll(output.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *S3Store) Put(key, value string) (err error) {
	client, err := s.ensureClient()
	if err != nil {
		return err
	}
	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fmt.Sprintf("%x", key)),
		Body:   strings.NewReader(value),
	})
	return err
}

func (s *S3Store) ensureClient() (*s3.S3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(s.region),
		Credentials: credentials.NewSharedCredentials("", s.profile),
	})
	if err != nil {
		return nil, err
	}
	s.client = s3.New(sess)
	return s.client, nil
}
