// Command connect-replay classifies captured portal messages offline.
//
// Each input line is either a raw message string or a JSON envelope such as
// {"nativeEvent":{"data":"SUCCESS:abc"}}. One JSON record is printed per line:
//
//	$ printf 'SUCCESS:abc\nERROR:404\n' | connect-replay
//	{"line":1,"outcome":"SUCCESS","event":{"type":"SUCCESS","status":"SUCCESS","authorizationId":"abc"}}
//	{"line":2,"outcome":"ERROR","event":{"type":"ERROR","status":"ERROR","statusCode":404,"detail":"Error with status code: 404"}}
package main
