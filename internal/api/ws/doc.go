/*
Package ws streams classified portal events to websocket subscribers.

Clients connect to GET /v1/events and receive a system frame followed by
one frame per event:

	{"id":"evt_01H...","session_id":"sess_01H...","event":{"type":"SUCCESS","status":"SUCCESS","authorizationId":"abc"},"timestamp":1700000000}

Clients may send {"type":"ping"} and get {"type":"pong"} back. Anything else
is answered with an error frame. Subscribers whose queue fills up are
disconnected rather than slowing the broadcaster.
*/
package ws
