// Package bucket lists an S3-compatible bucket and signs download URLs.
//
// The client is a thin layer over aws-sdk-go-v2. The S3 calls go through
// the API and Presigner interfaces, so tests can substitute fakes.
package bucket
