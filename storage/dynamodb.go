package storage

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DynamoDBStore is an implementation of Store backed by a DynamoDB table
// with a string hash key named "k" and the value in attribute "va".
type DynamoDBStore struct {
	table string

	// Do throttling on our side based on configured RCUs/WCUs so the
	// client doesn't have to retry.
	getLimiter *rate.Limiter
	putLimiter *rate.Limiter

	ddb *dynamodb.DynamoDB
}

func NewDynamoDBStore(profile, region, table string) (*DynamoDBStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewSharedCredentials("", profile),
	})
	if err != nil {
		return nil, err
	}
	s := &DynamoDBStore{
		table: table,
		ddb:   dynamodb.New(sess),
	}
	if err := s.configureLimiters(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DynamoDBStore) configureLimiters() error {
	result, err := s.ddb.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: &s.table,
	})
	if err != nil {
		return err
	}
	rcus := aws.Int64Value(result.Table.ProvisionedThroughput.ReadCapacityUnits)
	wcus := aws.Int64Value(result.Table.ProvisionedThroughput.WriteCapacityUnits)
	s.getLimiter = newCapacityLimiter(rcus)
	s.putLimiter = newCapacityLimiter(wcus)
	log.WithFields(log.Fields{
		"table": s.table,
		"rcus":  rcus,
		"wcus":  wcus,
	}).Debug("Configured DynamoDB limiters")
	return nil
}

// Assume items are <= 1 kB, so capacity units translate to requests per
// second. On-demand tables report zero units and are not throttled here.
func newCapacityLimiter(units int64) *rate.Limiter {
	if units <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(1_000_000/units)*time.Microsecond), 1)
}

func (s *DynamoDBStore) Put(key, value string) error {
	time.Sleep(s.putLimiter.Reserve().Delay())
	_, err := s.ddb.PutItem(&dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      ddbItem(key, value),
	})
	return err
}

// ddbItem leaves "va" out for the empty value, which older DynamoDB API
// versions reject as a string attribute.
func ddbItem(key, value string) map[string]*dynamodb.AttributeValue {
	item := map[string]*dynamodb.AttributeValue{
		"k": {S: aws.String(key)},
	}
	if value != "" {
		item["va"] = &dynamodb.AttributeValue{S: aws.String(value)}
	}
	return item
}

func (s *DynamoDBStore) Get(key string) (value string, err error) {
	time.Sleep(s.getLimiter.Reserve().Delay())
	output, err := s.ddb.GetItem(&dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]*dynamodb.AttributeValue{
			"k": {S: aws.String(key)},
		},
	})
	if err != nil {
		if e, ok := err.(awserr.Error); ok {
			if e.Code() == dynamodb.ErrCodeResourceNotFoundException {
				return "", fmt.Errorf("%v: %w", e, ErrNotFound)
			}
		}
		return "", err
	}
	if output.Item == nil {
		return "", fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	return ddbValue(output.Item), nil
}

// ddbValue is the inverse of ddbItem: a missing "va" is the empty value.
func ddbValue(item map[string]*dynamodb.AttributeValue) string {
	if va, ok := item["va"]; ok {
		return aws.StringValue(va.S)
	}
	return ""
}
