package vision

// DefaultPrompt asks for both criteria sets in one JSON object so a single
// upstream call serves the plate-focus and damage-focus sources.
const DefaultPrompt = `
You are a vehicle analysis specialist. Analyze the image using TWO different criteria sets and return a single JSON object containing both results.

[CRITERIA SET A - License Plate Extraction]
1. Determine if it's a vehicle.
2. If NOT, status: "NOT_VEHICLE", message: "차량 사진이 아닙니다."
3. If IS, extract Korean license plate.
4. If plate is missing/unreadable, status: "VEHICLE_NO_PLATE", message: "번호판을 찾을 수 없습니다."
5. If plate found, status: "SUCCESS", message: "성공".

[CRITERIA SET B - Vehicle Condition Analysis]
Step 1: Determine whether the image contains a vehicle. (Cars, trucks, buses, motorcycles, parts like plates, wheels, bumpers).
- If no vehicle: status: "EXCEPT", message: "차량 사진이 아닙니다.", plate: null.
Step 2: If vehicle, check for serious damage.
- If serious damage: status: "ISSUE", message: "차량 파손 여부가 확인됩니다."
- If no serious damage: status: "SUCCESS", message: "정상 차량입니다."
Step 3: Extract license plate into 'plate' field if visible.

RETURN JSON FORMAT ONLY:
{
  "analysisA": { "status": "...", "plate": "...", "message": "..." },
  "analysisB": { "status": "...", "plate": "...", "message": "..." }
}
`

const userInstruction = "Analyze this image for vehicle identification and damage assessment."
